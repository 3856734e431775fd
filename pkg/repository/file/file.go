package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/homedocks/homedocks-bot/pkg/domain/interfaces"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/homedocks/homedocks-bot/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tidwall/jsonc"
)

const documentExt = ".json"

type document map[string]*model.Posting

// Repository keeps every posting document in memory and rewrites the whole
// document file on each mutation. Documents live in one directory as
// <document>.json. A single bot process is assumed to own the directory.
type Repository struct {
	dir     string
	posting *postingRepository
}

var _ interfaces.Repository = &Repository{}

// New loads every document found in dir. Missing, unreadable or corrupt
// documents are logged and treated as empty.
func New(ctx context.Context, dir string) (*Repository, error) {
	if dir == "" {
		return nil, goerr.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, goerr.Wrap(err, "failed to create state directory", goerr.V("dir", dir))
	}

	repo := &Repository{
		dir: dir,
		posting: &postingRepository{
			dir:       dir,
			documents: make(map[string]document),
		},
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list state directory", goerr.V("dir", dir))
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), documentExt)
		repo.posting.documents[name] = loadDocument(ctx, filepath.Join(dir, entry.Name()))
	}

	logging.From(ctx).Info("State loaded", "dir", dir, "documents", len(repo.posting.documents))
	return repo, nil
}

func loadDocument(ctx context.Context, path string) document {
	// #nosec G304 - path is built from the configured state directory
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.From(ctx).Warn("Failed to read state document, starting empty", "path", path, "error", err.Error())
		}
		return make(document)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return make(document)
	}

	var doc document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		logging.From(ctx).Warn("Corrupt state document, starting empty", "path", path, "error", err.Error())
		return make(document)
	}
	if doc == nil {
		doc = make(document)
	}
	for entry, p := range doc {
		if p == nil {
			delete(doc, entry)
		}
	}
	return doc
}

func (r *Repository) Posting() interfaces.PostingRepository {
	return r.posting
}

// Dir returns the state directory
func (r *Repository) Dir() string {
	return r.dir
}

func (r *Repository) Close() error {
	return nil
}

type postingRepository struct {
	dir       string
	mu        sync.RWMutex
	documents map[string]document
}

var _ interfaces.PostingRepository = &postingRepository{}

func (r *postingRepository) Get(ctx context.Context, key model.PostingKey) (*model.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.documents[key.Document][key.Entry]; ok {
		cp := p.Clone()
		cp.Key = key
		return cp, nil
	}
	return &model.Posting{Key: key}, nil
}

func (r *postingRepository) Put(ctx context.Context, posting *model.Posting) error {
	if posting == nil || posting.Key.Document == "" || posting.Key.Entry == "" {
		return goerr.New("posting key is required")
	}
	if strings.ContainsAny(posting.Key.Document, `/\`) || strings.HasPrefix(posting.Key.Document, ".") {
		return goerr.New("invalid document name", goerr.V("document", posting.Key.Document))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[posting.Key.Document]
	if !ok {
		doc = make(document)
		r.documents[posting.Key.Document] = doc
	}

	prev, hadPrev := doc[posting.Key.Entry]
	doc[posting.Key.Entry] = posting.Clone()

	if err := r.write(ctx, posting.Key.Document, doc); err != nil {
		if hadPrev {
			doc[posting.Key.Entry] = prev
		} else {
			delete(doc, posting.Key.Entry)
		}
		return err
	}
	return nil
}

func (r *postingRepository) List(ctx context.Context, name string) ([]*model.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc := r.documents[name]
	result := make([]*model.Posting, 0, len(doc))
	for entry, p := range doc {
		cp := p.Clone()
		cp.Key = model.PostingKey{Document: name, Entry: entry}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.Entry < result[j].Key.Entry
	})
	return result, nil
}

// write replaces the document file atomically via a temp file and rename
func (r *postingRepository) write(ctx context.Context, name string, doc document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode state document", goerr.V("document", name))
	}

	tmp, err := os.CreateTemp(r.dir, "."+name+"-*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("document", name))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		safe.Close(ctx, tmp)
		safe.Remove(ctx, tmpPath)
		return goerr.Wrap(err, "failed to write state document", goerr.V("document", name))
	}
	if err := tmp.Close(); err != nil {
		safe.Remove(ctx, tmpPath)
		return goerr.Wrap(err, "failed to close state document", goerr.V("document", name))
	}

	path := filepath.Join(r.dir, name+documentExt)
	if err := os.Rename(tmpPath, path); err != nil {
		safe.Remove(ctx, tmpPath)
		return goerr.Wrap(err, "failed to replace state document", goerr.V("path", path))
	}

	logging.From(ctx).Debug("State document saved", "path", path, "entries", len(doc))
	return nil
}
