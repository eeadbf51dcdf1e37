package survey

import (
	"reflect"
	"testing"
)

func q(id string) QuestionInput {
	return QuestionInput{ID: id, Question: "Q" + id, Type: "text"}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		existing   []int
		submitted  []QuestionInput
		wantDelete []int
		wantAdd    []string
		wantUpdate []string
	}{
		{
			name:      "all new on empty survey",
			submitted: []QuestionInput{q(""), q("")},
			wantAdd:   []string{"", ""},
		},
		{
			name:       "omitted ids deleted",
			existing:   []int{1, 2, 3},
			submitted:  []QuestionInput{q("2")},
			wantDelete: []int{1, 3},
			wantUpdate: []string{"2"},
		},
		{
			name:       "mixed add update delete",
			existing:   []int{10, 11},
			submitted:  []QuestionInput{q("11"), q("temp-abc"), q("")},
			wantDelete: []int{10},
			wantAdd:    []string{"temp-abc", ""},
			wantUpdate: []string{"11"},
		},
		{
			name:      "client temp id never matches persisted set",
			existing:  []int{7},
			submitted: []QuestionInput{q("7"), q("9999")},
			wantAdd:   []string{"9999"},
			wantUpdate: []string{"7"},
		},
		{
			name:       "empty submission deletes everything",
			existing:   []int{1, 2},
			wantDelete: []int{1, 2},
		},
		{
			name:       "identical submission is all updates",
			existing:   []int{1, 2},
			submitted:  []QuestionInput{q("1"), q("2")},
			wantUpdate: []string{"1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Reconcile(tt.existing, tt.submitted)

			if !reflect.DeepEqual(plan.Delete, tt.wantDelete) {
				t.Errorf("Delete = %v, want %v", plan.Delete, tt.wantDelete)
			}
			if got := ids(plan.Add); !reflect.DeepEqual(got, tt.wantAdd) {
				t.Errorf("Add = %v, want %v", got, tt.wantAdd)
			}
			if got := ids(plan.Update); !reflect.DeepEqual(got, tt.wantUpdate) {
				t.Errorf("Update = %v, want %v", got, tt.wantUpdate)
			}
		})
	}
}

func ids(questions []QuestionInput) []string {
	if questions == nil {
		return nil
	}
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}
