package survey

import "strconv"

// Plan partitions a submitted question list against the persisted set:
// Delete holds persisted ids absent from the submission, Add the submitted
// items with no matching persisted id (fresh or client-temporary ids), Update
// the items matching a persisted id.
type Plan struct {
	Delete []int
	Add    []QuestionInput
	Update []QuestionInput
}

// Reconcile computes the mutation plan. It is a pure set computation; the
// caller applies it inside a transaction, deletions first.
func Reconcile(existing []int, submitted []QuestionInput) (plan Plan) {
	persisted := make(map[string]bool, len(existing))
	for _, id := range existing {
		persisted[strconv.Itoa(id)] = true
	}

	kept := make(map[string]bool, len(submitted))
	for _, q := range submitted {
		if q.ID != "" && persisted[q.ID] {
			plan.Update = append(plan.Update, q)
			kept[q.ID] = true
		} else {
			plan.Add = append(plan.Add, q)
		}
	}

	for _, id := range existing {
		if !kept[strconv.Itoa(id)] {
			plan.Delete = append(plan.Delete, id)
		}
	}
	return plan
}
