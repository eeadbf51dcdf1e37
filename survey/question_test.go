package survey

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name      string
		question  QuestionInput
		wantData  string
		wantField string
	}{
		{
			name:     "text without payload",
			question: QuestionInput{Question: "Your name?", Type: "text"},
		},
		{
			name:     "text with null payload",
			question: QuestionInput{Question: "Your name?", Type: "text", Data: json.RawMessage(`null`)},
		},
		{
			name:     "textarea with placeholder hint",
			question: QuestionInput{Question: "Tell us more", Type: "textarea", Data: json.RawMessage(`{"placeholder":"..."}`)},
			wantData: `{"placeholder":"..."}`,
		},
		{
			name:      "text with unknown payload key",
			question:  QuestionInput{Question: "Your name?", Type: "text", Data: json.RawMessage(`{"options":[]}`)},
			wantField: "data.options",
		},
		{
			name:     "select with options",
			question: QuestionInput{Question: "Pick one", Type: "select", Data: json.RawMessage(`{"options":[{"uuid":"a","text":"Yes"},{"uuid":"b","text":"No"}]}`)},
			wantData: `{"options":[{"text":"Yes","uuid":"a"},{"text":"No","uuid":"b"}]}`,
		},
		{
			name:      "checkbox without options",
			question:  QuestionInput{Question: "Pick any", Type: "checkbox", Data: json.RawMessage(`{}`)},
			wantField: "data.options",
		},
		{
			name:      "radio with empty options",
			question:  QuestionInput{Question: "Pick one", Type: "radio", Data: json.RawMessage(`{"options":[]}`)},
			wantField: "data.options",
		},
		{
			name:      "select option without text",
			question:  QuestionInput{Question: "Pick one", Type: "select", Data: json.RawMessage(`{"options":[{"uuid":"a"}]}`)},
			wantField: "data.options.0.text",
		},
		{
			name:     "rating with scale",
			question: QuestionInput{Question: "Rate us", Type: "rating", Data: json.RawMessage(`{"scale":5}`)},
			wantData: `{"scale":5}`,
		},
		{
			name:      "rating without payload",
			question:  QuestionInput{Question: "Rate us", Type: "rating"},
			wantField: "data.scale",
		},
		{
			name:      "rating scale below minimum",
			question:  QuestionInput{Question: "Rate us", Type: "rating", Data: json.RawMessage(`{"scale":1}`)},
			wantField: "data.scale",
		},
		{
			name:      "rating fractional scale",
			question:  QuestionInput{Question: "Rate us", Type: "rating", Data: json.RawMessage(`{"scale":4.5}`)},
			wantField: "data.scale",
		},
		{
			name:      "missing question text",
			question:  QuestionInput{Type: "text"},
			wantField: "question",
		},
		{
			name:      "unknown type",
			question:  QuestionInput{Question: "Hm?", Type: "dropdown"},
			wantField: "type",
		},
		{
			name:      "malformed payload json",
			question:  QuestionInput{Question: "Hm?", Type: "text", Data: json.RawMessage(`{oops`)},
			wantField: "data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ValidateQuestion(tt.question)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateQuestion() error = %v", err)
				}
				if data != tt.wantData {
					t.Errorf("data = %q, want %q", data, tt.wantData)
				}
				return
			}

			fields := FieldErrors(err)
			if fields == nil {
				t.Fatalf("ValidateQuestion() error = %v, want field error on %q", err, tt.wantField)
			}
			for _, fe := range fields {
				if fe.Field == tt.wantField {
					return
				}
			}
			t.Errorf("field errors %v, want one on %q", fields, tt.wantField)
		})
	}
}

func TestCanonicalDataRoundTrip(t *testing.T) {
	payload := json.RawMessage(`{"options":[{"uuid":"u1","text":"One"},{"uuid":"u2","text":"Two"}]}`)
	data, err := ValidateQuestion(QuestionInput{Question: "Pick", Type: "radio", Data: payload})
	if err != nil {
		t.Fatalf("ValidateQuestion() error = %v", err)
	}

	var original, stored any
	if err := json.Unmarshal(payload, &original); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		t.Fatalf("stored data is not JSON: %v", err)
	}
	if !reflect.DeepEqual(original, stored) {
		t.Errorf("stored payload %v does not round-trip to %v", stored, original)
	}

	// canonical form is stable across re-encoding
	again, err := ValidateQuestion(QuestionInput{Question: "Pick", Type: "radio", Data: json.RawMessage(data)})
	if err != nil {
		t.Fatalf("ValidateQuestion() error = %v", err)
	}
	if again != data {
		t.Errorf("re-encoded data %q, want %q", again, data)
	}
}
