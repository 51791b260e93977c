package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrExternalService    = errors.New("external service failed")
	ErrUnrecognizedAction = errors.New("invalid action")
	ErrIngestionFault     = errors.New("webhook ingestion failed")
)

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func External(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternalService, op, err)
}

// PartialBatchError reports a batch where some items were applied and others
// were not. Applied items stay applied.
type PartialBatchError struct {
	Succeeded int
	Failed    int
	Errs      []error
}

func (e *PartialBatchError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("batch partially applied: %d succeeded, %d failed: %s",
		e.Succeeded, e.Failed, strings.Join(msgs, "; "))
}

func (e *PartialBatchError) Unwrap() []error {
	return e.Errs
}
