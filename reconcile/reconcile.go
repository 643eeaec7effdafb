// Package reconcile merges newly submitted answers into a persisted answer
// set. A page submission is a last-write-wins replace of exactly the
// (question, occurrence) identities it names; everything else is kept.
// Both operations are pure transforms, the caller owns the surrounding
// transaction.
package reconcile

import (
	"sort"

	"github.com/veritrade/exportcert/model"
)

type identity struct {
	question   int
	occurrence int
}

// Merge applies keep-unless-replaced: an existing answer survives unless
// an incoming answer carries the same (formQuestionId, pageOccurrence)
// identity, and every incoming answer is added. Submitting fewer
// occurrences than stored deletes nothing; deletion is DeleteOccurrence.
func Merge(existing, incoming []model.Answer) []model.Answer {
	arena := make(map[identity]model.Answer, len(existing)+len(incoming))
	for _, a := range existing {
		arena[identity{a.FormQuestionID, a.PageOccurrence}] = a
	}
	for _, a := range incoming {
		arena[identity{a.FormQuestionID, a.PageOccurrence}] = a
	}
	return sorted(arena)
}

// DeleteOccurrence removes every answer of the page at the given
// occurrence and closes the gap: higher occurrences on that page shift
// down by one. Answers on other pages are untouched. Occurrences are
// 1-based; a non-positive occurrence deletes nothing.
func DeleteOccurrence(existing []model.Answer, pageNumber, occurrence int) []model.Answer {
	if occurrence < 1 {
		return Merge(existing, nil)
	}

	arena := make(map[identity]model.Answer, len(existing))
	for _, a := range existing {
		if a.PageNumber == pageNumber {
			if a.PageOccurrence == occurrence {
				continue
			}
			if a.PageOccurrence > occurrence {
				a.PageOccurrence--
			}
		}
		arena[identity{a.FormQuestionID, a.PageOccurrence}] = a
	}
	return sorted(arena)
}

// sorted flattens the arena into the stable storage order:
// (pageNumber, pageOccurrence, questionOrder) ascending, question id as
// the final tie-break for determinism.
func sorted(arena map[identity]model.Answer) []model.Answer {
	out := make([]model.Answer, 0, len(arena))
	for _, a := range arena {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PageNumber != b.PageNumber {
			return a.PageNumber < b.PageNumber
		}
		if a.PageOccurrence != b.PageOccurrence {
			return a.PageOccurrence < b.PageOccurrence
		}
		if a.QuestionOrder != b.QuestionOrder {
			return a.QuestionOrder < b.QuestionOrder
		}
		return a.FormQuestionID < b.FormQuestionID
	})
	return out
}
