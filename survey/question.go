package survey

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/surveyard/surveyard/model"
)

// QuestionInput is one submitted question. ID is the raw submitted identifier:
// empty when absent, and possibly a client-generated temporary id that matches
// no persisted question (such items become inserts).
type QuestionInput struct {
	ID          string
	Question    string
	Type        model.QuestionType
	Description string
	Data        json.RawMessage
}

// payloadRule declares what the free-form data payload must look like for a
// question type.
type payloadRule struct {
	needsOptions bool
	needsScale   bool
	hintKeys     map[string]bool
}

var payloadRules = map[model.QuestionType]payloadRule{
	model.QuestionText:     {hintKeys: map[string]bool{"placeholder": true}},
	model.QuestionTextarea: {hintKeys: map[string]bool{"placeholder": true}},
	model.QuestionSelect:   {needsOptions: true},
	model.QuestionRadio:    {needsOptions: true},
	model.QuestionCheckbox: {needsOptions: true},
	model.QuestionRating:   {needsScale: true},
}

// ValidateQuestion checks one submitted question against the schema for its
// declared type and returns the canonical serialized form of its data payload
// ("" when the payload is empty). It performs no persistence.
func ValidateQuestion(q QuestionInput) (data string, err error) {
	var merr *multierror.Error

	if q.Question == "" {
		merr = multierror.Append(merr, FieldError{"question", "The question field is required."})
	}
	if !q.Type.Valid() {
		merr = multierror.Append(merr, FieldError{"type", fmt.Sprintf("The question type %q is invalid.", string(q.Type))})
		return "", merr.ErrorOrNil()
	}

	payload, payloadErr := decodePayload(q.Data)
	if payloadErr != nil {
		merr = multierror.Append(merr, FieldError{"data", "The data payload is not valid JSON."})
		return "", merr.ErrorOrNil()
	}

	rule := payloadRules[q.Type]
	for _, fe := range checkPayload(rule, payload) {
		merr = multierror.Append(merr, fe)
	}
	if merr.ErrorOrNil() != nil {
		return "", merr.ErrorOrNil()
	}

	if payload == nil {
		return "", nil
	}
	return canonicalJSON(payload)
}

func decodePayload(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload any
	err := json.Unmarshal(raw, &payload)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func checkPayload(rule payloadRule, payload any) (errs []FieldError) {
	obj, isObj := payload.(map[string]any)

	switch {
	case rule.needsOptions:
		if !isObj {
			return append(errs, FieldError{"data.options", "The options list is required."})
		}
		options, ok := obj["options"].([]any)
		if !ok || len(options) == 0 {
			return append(errs, FieldError{"data.options", "The options list is required."})
		}
		for i, o := range options {
			option, ok := o.(map[string]any)
			text, _ := option["text"].(string)
			if !ok || text == "" {
				errs = append(errs, FieldError{
					fmt.Sprintf("data.options.%d.text", i),
					"Each option needs a non-empty text.",
				})
			}
		}

	case rule.needsScale:
		if !isObj {
			return append(errs, FieldError{"data.scale", "The rating scale is required."})
		}
		scale, ok := obj["scale"].(float64)
		if !ok || scale != math.Trunc(scale) || scale < 2 {
			errs = append(errs, FieldError{"data.scale", "The rating scale must be an integer of at least 2."})
		}

	default:
		// text/textarea carry no payload, or display hints only
		if payload == nil {
			return nil
		}
		if !isObj {
			return append(errs, FieldError{"data", "The data payload must be an object."})
		}
		for key := range obj {
			if !rule.hintKeys[key] {
				errs = append(errs, FieldError{"data." + key, "Unknown payload key."})
			}
		}
	}
	return errs
}

// canonicalJSON serializes with ordered object keys, so a payload round-trips
// byte-identically through storage.
func canonicalJSON(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
