package survey

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrNotFound  = errors.New("survey not found")
	ErrForbidden = errors.New("not the survey owner")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// InvalidQuestionError reports an answer submitted for a question that does
// not belong to the target survey. ID is echoed verbatim from the request.
type InvalidQuestionError struct {
	ID string
}

func (e *InvalidQuestionError) Error() string {
	return fmt.Sprintf("Invalid question ID: %q", e.ID)
}

// InvalidAnswerError reports an answer value that could not be decoded.
// QuestionID is echoed verbatim from the request.
type InvalidAnswerError struct {
	QuestionID string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("Invalid answer for question %q", e.QuestionID)
}

// FieldErrors unpacks a validation error into its field errors,
// or returns nil if err is not made of field errors.
func FieldErrors(err error) []FieldError {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var fields []FieldError
		for _, e := range merr.Errors {
			var fe FieldError
			if errors.As(e, &fe) {
				fields = append(fields, fe)
			}
		}
		if len(fields) == len(merr.Errors) {
			return fields
		}
		return nil
	}

	var fe FieldError
	if errors.As(err, &fe) {
		return []FieldError{fe}
	}
	return nil
}

func prefixFields(err error, prefix string) error {
	var merr *multierror.Error
	for _, fe := range FieldErrors(err) {
		fe.Field = prefix + fe.Field
		merr = multierror.Append(merr, fe)
	}
	if merr == nil {
		return err
	}
	return merr
}
