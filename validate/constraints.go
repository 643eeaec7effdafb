package validate

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/veritrade/exportcert/model"
)

const maxDecimalPlaces = 6

// Fixed messages for the question-type-derived constraints.
const (
	msgDate          = "must be a valid date (yyyy-mm-dd)"
	msgSelectOne     = "select one option"
	msgSelectAtLeast = "select at least one option"
	msgUnknownOption = "must be one of the listed options"
	msgWholeNumber   = "must be a whole number"
	msgDecimal       = "must be a number"
	msgDecimalPlaces = "must have 6 or fewer decimal places"
)

// constraint is one rule in an answer's evaluation chain. ok reports
// whether the value passes.
type constraint struct {
	ctype   model.ConstraintType
	message string
	ok      func(value string, q model.ComposedQuestion) bool
}

// constraintChain builds the ordered rule list for one question: the
// type-derived constraints first, then the static ones from the catalog.
// The first failing rule wins.
func constraintChain(q model.ComposedQuestion) []constraint {
	chain := derivedConstraints(q)
	for _, c := range q.Constraints {
		chain = append(chain, staticConstraint(c))
	}
	return chain
}

// derivedConstraints dispatches on the question type. The switch is closed:
// one case per type, types without format rules fall through to none.
func derivedConstraints(q model.ComposedQuestion) []constraint {
	switch q.Type {
	case model.QuestionDate:
		return []constraint{{message: msgDate, ok: validDate}}
	case model.QuestionSingleSelect:
		// Stacked like the decimal rules: an unlisted value is reported
		// as such, not as a missing selection.
		return []constraint{
			{message: msgSelectOne, ok: oneSelected},
			{message: msgUnknownOption, ok: selectionListed},
		}
	case model.QuestionMultiSelect:
		return []constraint{
			{message: msgSelectAtLeast, ok: anySelected},
			{message: msgUnknownOption, ok: selectionsListed},
		}
	case model.QuestionNumber:
		return []constraint{{message: msgWholeNumber, ok: validInteger}}
	case model.QuestionDecimal:
		// Stacked on purpose: a well-formed number with too many places
		// must report the places error, not the format one.
		return []constraint{
			{message: msgDecimal, ok: validDecimal},
			{message: msgDecimalPlaces, ok: decimalPlacesOK},
		}
	case model.QuestionText, model.QuestionUpload:
		return nil
	default:
		return nil
	}
}

func validDate(value string, _ model.ComposedQuestion) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func validInteger(value string, _ model.ComposedQuestion) bool {
	_, err := strconv.Atoi(strings.TrimSpace(value))
	return err == nil
}

func validDecimal(value string, _ model.ComposedQuestion) bool {
	_, err := decimal.NewFromString(strings.TrimSpace(value))
	return err == nil
}

func decimalPlacesOK(value string, _ model.ComposedQuestion) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		// Not this rule's failure: the format rule before it reports it.
		return true
	}
	return d.Exponent() >= -maxDecimalPlaces
}

func oneSelected(value string, _ model.ComposedQuestion) bool {
	return strings.TrimSpace(value) != ""
}

// selectionListed passes empty values through; the selection rule before
// it reports those.
func selectionListed(value string, q model.ComposedQuestion) bool {
	value = strings.TrimSpace(value)
	return value == "" || isOption(q, value)
}

func anySelected(value string, _ model.ComposedQuestion) bool {
	return len(selections(value)) > 0
}

func selectionsListed(value string, q model.ComposedQuestion) bool {
	for _, v := range selections(value) {
		if !isOption(q, v) {
			return false
		}
	}
	return true
}

// selections splits the raw value as a comma-separated selection list,
// the encoding the submission endpoints use for multi-selects.
func selections(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isOption(q model.ComposedQuestion, value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func staticConstraint(c model.Constraint) constraint {
	out := constraint{ctype: c.Type, message: c.Message}
	switch c.Type {
	case model.ConstraintRequired:
		out.ok = func(value string, _ model.ComposedQuestion) bool {
			return strings.TrimSpace(value) != ""
		}
	case model.ConstraintMaxLength:
		limit, err := strconv.Atoi(c.Value)
		out.ok = func(value string, _ model.ComposedQuestion) bool {
			return err != nil || len(value) <= limit
		}
	case model.ConstraintMinValue:
		bound, err := decimal.NewFromString(c.Value)
		out.ok = func(value string, _ model.ComposedQuestion) bool {
			d, derr := decimal.NewFromString(strings.TrimSpace(value))
			return err != nil || derr != nil || d.GreaterThanOrEqual(bound)
		}
	case model.ConstraintMaxValue:
		bound, err := decimal.NewFromString(c.Value)
		out.ok = func(value string, _ model.ComposedQuestion) bool {
			d, derr := decimal.NewFromString(strings.TrimSpace(value))
			return err != nil || derr != nil || d.LessThanOrEqual(bound)
		}
	default:
		out.ok = func(string, model.ComposedQuestion) bool { return true }
	}
	return out
}
