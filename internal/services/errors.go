package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrStaging       = errors.New("staging error")
	ErrTimeout       = errors.New("timeout")
	ErrCanceled      = errors.New("canceled")
	ErrBusy          = errors.New("busy")
	ErrTransient     = errors.New("transient failure")
)

// Failure is a classified pipeline error. Message is the text shown to the
// user; Marker is one of the sentinel errors above.
type Failure struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (f *Failure) Error() string {
	detail := buildDetail(f.Stage, f.Operation, f.Message)
	if f.Err != nil {
		return fmt.Sprintf("%v: %s: %v", f.Marker, detail, f.Err)
	}
	return fmt.Sprintf("%v: %s", f.Marker, detail)
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Marker}
	}
	return []error{f.Marker, f.Err}
}

// Wrap builds a Failure that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Failure{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// UserMessage returns the caller-facing message for err. For a Failure this is
// its Message followed by the underlying error text, verbatim; other errors
// are rendered with Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var failure *Failure
	if errors.As(err, &failure) {
		message := failure.Message
		if message == "" {
			message = buildDetail(failure.Stage, failure.Operation, "")
		}
		if failure.Err != nil {
			return message + ": " + failure.Err.Error()
		}
		return message
	}
	return err.Error()
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
