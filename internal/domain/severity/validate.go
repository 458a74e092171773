package severity

import (
	"fmt"
	"sort"
)

// IncompleteError reports catalog questions left unanswered.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("Please answer all questions. Missing: %d question(s)", len(e.Missing))
}

// InvalidAnswerError reports an answer that does not belong to the catalog.
type InvalidAnswerError struct {
	QuestionID string
	Weight     int
}

func (e *InvalidAnswerError) Error() string {
	if _, ok := Lookup(e.QuestionID); !ok {
		return fmt.Sprintf("unknown severity question: %s", e.QuestionID)
	}
	return fmt.Sprintf("invalid weight %d for question %s", e.Weight, e.QuestionID)
}

// Missing returns, in catalog order, the ids of questions without an answer.
// A zero weight counts as unanswered.
func Missing(responses map[string]int) []string {
	var out []string
	for _, q := range catalog {
		if responses[q.ID] == 0 {
			out = append(out, q.ID)
		}
	}
	return out
}

// Validate checks that responses hold exactly one in-range weight for every
// catalog question and nothing else.
func Validate(responses map[string]int) error {
	ids := make([]string, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		w := responses[id]
		q, ok := Lookup(id)
		if !ok {
			return &InvalidAnswerError{QuestionID: id, Weight: w}
		}
		if w == 0 {
			continue
		}
		if _, ok := q.option(w); !ok {
			return &InvalidAnswerError{QuestionID: id, Weight: w}
		}
	}

	if missing := Missing(responses); len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}
