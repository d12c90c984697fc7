package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Wrap returns a new error wrapping the passed error, annotated with a
// stack trace captured at the call site. If the passed error is nil, nil is
// returned.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w", errors.WithStack(err))
}
