package config

import (
	"context"

	"github.com/homedocks/homedocks-bot/pkg/domain/interfaces"
	"github.com/homedocks/homedocks-bot/pkg/repository/file"
	"github.com/homedocks/homedocks-bot/pkg/repository/memory"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend  string
	stateDir string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (file or memory)",
			Value:       "file",
			Sources:     cli.EnvVars("HOMEDOCKS_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "state-dir",
			Usage:       "Directory of the posting documents (overrides state_dir of the config file)",
			Sources:     cli.EnvVars("HOMEDOCKS_STATE_DIR"),
			Destination: &r.stateDir,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured backend.
// fallbackDir is used when --state-dir is not set.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context, fallbackDir string) (interfaces.Repository, error) {
	switch r.backend {
	case "", "file":
		dir := r.stateDir
		if dir == "" {
			dir = fallbackDir
		}
		if dir == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "state directory is required when using file backend")
		}
		repo, err := file.New(ctx, dir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize file repository")
		}
		logging.Default().Info("Using file repository", "dir", dir)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (postings are re-created after restart)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}
