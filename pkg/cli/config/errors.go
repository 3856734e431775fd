package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrMissingToken     = goerr.New("discord token is required")
	ErrMissingField     = goerr.New("required field is missing")
	ErrInvalidSnowflake = goerr.New("invalid snowflake id")
	ErrDuplicateChannel = goerr.New("duplicate support channel")
	ErrDuplicateEmoji   = goerr.New("duplicate reaction emoji")
	ErrDuplicateRole    = goerr.New("duplicate reaction role")
	ErrInvalidDuration  = goerr.New("invalid duration")
	ErrMissingName      = goerr.New("name is required")
	ErrIncompleteAnchor = goerr.New("reaction role bindings need an anchor channel")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	FieldKey      = "field"
	ValueKey      = "value"
	IndexKey      = "index"
)
