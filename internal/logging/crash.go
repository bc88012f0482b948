package logging

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
)

// RecoverPanic logs a recovered panic with its stack and returns it as an
// error. Use it as: defer func() { err = logging.RecoverPanic(ctx, "where", recover(), err) }().
func RecoverPanic(ctx context.Context, where string, r any, err error) error {
	if r == nil {
		return err
	}

	FromContext(ctx).Error().
		Str("where", where).
		Interface("panic", r).
		Str("go", runtime.Version()).
		Str("stack", string(debug.Stack())).
		Msg("recovered from panic")

	return fmt.Errorf("panic in %s: %v", where, r)
}
