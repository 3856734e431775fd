package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/m-mizutani/goerr/v2"
)

// Sentinel causes of platform failures
var (
	ErrNotFound  = goerr.New("discord resource not found")
	ErrForbidden = goerr.New("discord permission denied")
	ErrTooLarge  = goerr.New("discord payload too large")
)

// Outcome classifies the result of a platform call
type Outcome int

const (
	// OutcomeSuccess means the call succeeded
	OutcomeSuccess Outcome = iota
	// OutcomeRecoverable covers stale references, size limits and transient
	// failures. The caller may continue with its remaining steps.
	OutcomeRecoverable
	// OutcomeFatal means the bot lacks permission. The caller must abort
	// without mutating state.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRecoverable:
		return "recoverable"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by Service into an Outcome
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrForbidden):
		return OutcomeFatal
	default:
		return OutcomeRecoverable
	}
}

// IsNotFound reports whether err is a stale reference
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden reports whether err is a permission failure
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsTooLarge reports whether err is a payload size failure
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}

// wrapErr wraps a discordgo error, attaching the matching sentinel so callers
// can classify it with errors.Is while keeping the original REST error.
func wrapErr(err error, msg string, options ...goerr.Option) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		options = append(options, goerr.V("status", restErr.Response.StatusCode))
		if restErr.Message != nil {
			options = append(options, goerr.V("code", restErr.Message.Code))
		}

		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return goerr.Wrap(errors.Join(ErrNotFound, err), msg, options...)
		case http.StatusForbidden:
			return goerr.Wrap(errors.Join(ErrForbidden, err), msg, options...)
		case http.StatusRequestEntityTooLarge:
			return goerr.Wrap(errors.Join(ErrTooLarge, err), msg, options...)
		}
	}

	if errors.Is(err, discordgo.ErrStateNotFound) {
		return goerr.Wrap(errors.Join(ErrNotFound, err), msg, options...)
	}

	return goerr.Wrap(err, msg, options...)
}
