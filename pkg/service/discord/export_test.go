package discord

// Export internal functions for testing
var (
	WrapErr       = wrapErr
	SnowflakeLess = snowflakeLess
)
