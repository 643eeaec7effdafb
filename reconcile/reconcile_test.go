package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrade/exportcert/model"
)

func answer(question, page, occurrence, order int, value string) model.Answer {
	return model.Answer{
		FormQuestionID: question,
		PageNumber:     page,
		PageOccurrence: occurrence,
		QuestionOrder:  order,
		Value:          value,
	}
}

func TestMergeReplacesByIdentity(t *testing.T) {
	existing := []model.Answer{
		answer(1, 1, 1, 1, "old"),
		answer(2, 1, 1, 2, "untouched"),
	}
	incoming := []model.Answer{answer(1, 1, 1, 1, "new")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "new", merged[0].Value)
	assert.Equal(t, "untouched", merged[1].Value)
}

func TestMergeKeepsOccurrencesNotResubmitted(t *testing.T) {
	existing := []model.Answer{
		answer(1, 2, 1, 1, "first occurrence"),
		answer(1, 2, 2, 1, "second occurrence"),
	}
	// resubmitting only occurrence 1 must not delete occurrence 2
	incoming := []model.Answer{answer(1, 2, 1, 1, "revised")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "revised", merged[0].Value)
	assert.Equal(t, "second occurrence", merged[1].Value)
}

func TestMergeCommutesOverDisjointOccurrences(t *testing.T) {
	existing := []model.Answer{answer(9, 1, 1, 1, "shared")}
	first := []model.Answer{answer(1, 2, 1, 1, "occurrence one")}
	second := []model.Answer{answer(1, 2, 2, 1, "occurrence two")}

	oneThenTwo := Merge(Merge(existing, first), second)
	twoThenOne := Merge(Merge(existing, second), first)
	atOnce := Merge(existing, append(append([]model.Answer{}, first...), second...))

	if diff := cmp.Diff(oneThenTwo, twoThenOne); diff != "" {
		t.Errorf("merge order changed the result:\n%s", diff)
	}
	if diff := cmp.Diff(oneThenTwo, atOnce); diff != "" {
		t.Errorf("batched merge differs from sequential:\n%s", diff)
	}
}

func TestMergeSortsResult(t *testing.T) {
	existing := []model.Answer{
		answer(5, 3, 1, 2, "e"),
		answer(4, 3, 1, 1, "d"),
	}
	incoming := []model.Answer{
		answer(3, 1, 2, 1, "c"),
		answer(2, 1, 1, 2, "b"),
		answer(1, 1, 1, 1, "a"),
	}

	merged := Merge(existing, incoming)
	values := make([]string, len(merged))
	for i, a := range merged {
		values[i] = a.Value
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, values)
}

func TestDeleteOccurrenceRenumbers(t *testing.T) {
	existing := []model.Answer{
		answer(1, 2, 1, 1, "keep as occurrence 1"),
		answer(1, 2, 2, 1, "delete me"),
		answer(1, 2, 3, 1, "becomes occurrence 2"),
		answer(7, 4, 1, 1, "other page"),
	}

	remaining := DeleteOccurrence(existing, 2, 2)
	require.Len(t, remaining, 3)

	assert.Equal(t, 1, remaining[0].PageOccurrence)
	assert.Equal(t, "keep as occurrence 1", remaining[0].Value)
	assert.Equal(t, 2, remaining[1].PageOccurrence)
	assert.Equal(t, "becomes occurrence 2", remaining[1].Value)

	other := remaining[2]
	assert.Equal(t, 4, other.PageNumber)
	assert.Equal(t, 1, other.PageOccurrence)
}

func TestDeleteOccurrenceClosesGapEvenWhenAbsent(t *testing.T) {
	existing := []model.Answer{
		answer(1, 2, 1, 1, "one"),
		answer(1, 2, 3, 1, "three"),
	}

	remaining := DeleteOccurrence(existing, 2, 2)
	require.Len(t, remaining, 2)
	assert.Equal(t, 1, remaining[0].PageOccurrence)
	assert.Equal(t, 2, remaining[1].PageOccurrence)
	assert.Equal(t, "three", remaining[1].Value)
}

func TestDeleteOccurrenceLeavesOtherPagesAlone(t *testing.T) {
	existing := []model.Answer{
		answer(1, 2, 1, 1, "page 2"),
		answer(2, 3, 1, 1, "page 3"),
	}

	remaining := DeleteOccurrence(existing, 2, 1)
	require.Len(t, remaining, 1)
	assert.Equal(t, "page 3", remaining[0].Value)
}

func TestDeleteOccurrenceIgnoresNonPositive(t *testing.T) {
	existing := []model.Answer{
		answer(1, 2, 1, 1, "first occurrence"),
		answer(1, 2, 2, 1, "second occurrence"),
	}

	// occurrence 0 does not exist; nothing may shift down into it
	got := DeleteOccurrence(existing, 2, 0)
	if diff := cmp.Diff(existing, got); diff != "" {
		t.Errorf("deleting occurrence 0 changed the set:\n%s", diff)
	}

	got = DeleteOccurrence(existing, 2, -1)
	if diff := cmp.Diff(existing, got); diff != "" {
		t.Errorf("deleting occurrence -1 changed the set:\n%s", diff)
	}
}
