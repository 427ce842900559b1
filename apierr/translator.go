package apierr

import (
	"errors"

	"go.uber.org/zap"
)

// Hooks are the side effects the shell wires in: tearing down the session
// and navigating away. Each is optional.
type Hooks struct {
	ForceLogout          func()
	RedirectLogin        func()
	RedirectUnauthorized func()
	// Notify surfaces a human-readable message for failures that do not
	// force navigation.
	Notify func(message string)
}

// Translator runs the per-kind side effects and hands the typed error
// back to the caller. It never swallows an error: the original request
// still fails even after a recovery side effect ran.
type Translator struct {
	hooks  Hooks
	logger *zap.Logger
}

func NewTranslator(hooks Hooks, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{hooks: hooks, logger: logger}
}

// Handle executes side effects for err and returns it unchanged. Non-API
// errors pass through untouched.
func (t *Translator) Handle(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}

	t.logger.Debug("api error",
		zap.String("kind", e.Kind.String()),
		zap.Int("status", e.Status),
		zap.String("message", e.Message),
	)

	switch e.Kind {
	case KindUnauthorized:
		if t.hooks.ForceLogout != nil {
			t.hooks.ForceLogout()
		}
		if t.hooks.RedirectLogin != nil {
			t.hooks.RedirectLogin()
		}
	case KindForbidden:
		if t.hooks.RedirectUnauthorized != nil {
			t.hooks.RedirectUnauthorized()
		}
	default:
		if t.hooks.Notify != nil {
			t.hooks.Notify(e.Message)
		}
	}
	return err
}
