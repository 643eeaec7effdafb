package compose

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/veritrade/exportcert/model"
)

// Catalog looks up published form definitions by (name, version). It is
// passed in on every call so that composition stays a pure function of its
// inputs, testable without a database.
type Catalog interface {
	FormByNameVersion(ctx context.Context, name, version string) (model.FormDefinition, error)
}

// ScopePredicate reports whether the requester may see a question. It is
// applied as the final filter step; a page left without visible questions
// is dropped and the remaining pages renumbered.
type ScopePredicate func(model.ComposedQuestion) bool

// Everyone is the predicate that hides nothing.
func Everyone(model.ComposedQuestion) bool { return true }

// Schema merges the secondary document (if any), the primary document
// (unless its version is the OFFLINE sentinel) and the injected custom
// pages into one ordered page sequence:
//
//  1. secondary pages numbered from 1, in form order
//  2. primary pages numbered after the secondary document's page count
//  3. a synthesized certificate reference page inserted before the lowest
//     primary page when any primary page is certificate-level
//  4. custom pages appended after everything else
//  5. scope filter, then a final ascending sort by page number
//
// The catalog inputs are never mutated.
func Schema(ctx context.Context, cat Catalog, primary model.NameVersion, secondary *model.NameVersion, scope ScopePredicate, custom []model.ComposedPage) (model.ComposedSchema, error) {
	var pages []model.ComposedPage

	offset := 0
	if secondary != nil {
		form, err := cat.FormByNameVersion(ctx, secondary.Name, secondary.Version)
		if err != nil {
			return model.ComposedSchema{}, errors.Wrapf(err, "compose: secondary document %s/%s", secondary.Name, secondary.Version)
		}
		pages = buildPages(form, 0, false)
		offset = len(pages)
	}

	if !primary.Offline() {
		form, err := cat.FormByNameVersion(ctx, primary.Name, primary.Version)
		if err != nil {
			return model.ComposedSchema{}, errors.Wrapf(err, "compose: primary document %s/%s", primary.Name, primary.Version)
		}
		primaryPages := buildPages(form, offset, true)
		primaryPages = insertReferencePage(primaryPages)
		pages = append(pages, primaryPages...)
	}

	pages = appendCustomPages(pages, custom)

	if scope == nil {
		scope = Everyone
	}
	pages = filterScope(pages, scope)

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})
	return model.ComposedSchema{Pages: pages}, nil
}

// buildPages turns one form definition into composed pages numbered from
// offset+1, in the form's own page order.
func buildPages(form model.FormDefinition, offset int, primary bool) []model.ComposedPage {
	defs := make([]model.PageDefinition, len(form.Pages))
	copy(defs, form.Pages)
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].PageOrder < defs[j].PageOrder
	})

	occurrences := occurrencesByPageID(defs)

	pages := make([]model.ComposedPage, 0, len(defs))
	for i, def := range defs {
		number := offset + i + 1

		questions := make([]model.ComposedQuestion, 0, len(def.Questions))
		for j, q := range def.Questions {
			questions = append(questions, model.ComposedQuestion{
				QuestionDefinition: q,
				QuestionOrder:      j + 1,
				PageNumber:         number,
			})
		}

		pages = append(pages, model.ComposedPage{
			PageNumber:      number,
			Kind:            pageKind(def, primary),
			Title:           def.Title,
			OccurrenceCount: occurrences[def.PageID],
			Questions:       questions,
		})
	}
	return pages
}

// occurrencesByPageID derives how many times each page repeats: the maximum
// template-field binding count found on any question of a page with that
// identity, never less than 1.
func occurrencesByPageID(defs []model.PageDefinition) map[int]int {
	occurrences := make(map[int]int, len(defs))
	for _, def := range defs {
		if occurrences[def.PageID] < 1 {
			occurrences[def.PageID] = 1
		}
		for _, q := range def.Questions {
			if n := len(q.TemplateFields); n > occurrences[def.PageID] {
				occurrences[def.PageID] = n
			}
		}
	}
	return occurrences
}

func pageKind(def model.PageDefinition, primary bool) model.PageKind {
	for _, q := range def.Questions {
		if q.RepeatPerCertificate {
			return model.CertificateLevel
		}
	}
	if primary {
		return model.CommonForAllCertificates
	}
	return model.ApplicationLevel
}

// insertReferencePage synthesizes the certificate reference number page
// when any primary page is certificate-level. The new page takes the lowest
// primary page number; every primary page from there on shifts up by one.
func insertReferencePage(primaryPages []model.ComposedPage) []model.ComposedPage {
	repeated := false
	lowest := 0
	for _, p := range primaryPages {
		if lowest == 0 || p.PageNumber < lowest {
			lowest = p.PageNumber
		}
		if p.Kind == model.CertificateLevel {
			repeated = true
		}
	}
	if !repeated {
		return primaryPages
	}

	shifted := make([]model.ComposedPage, 0, len(primaryPages)+1)
	shifted = append(shifted, referencePage(lowest))
	for _, p := range primaryPages {
		p.PageNumber++
		for i := range p.Questions {
			p.Questions[i].PageNumber = p.PageNumber
		}
		shifted = append(shifted, p)
	}
	return shifted
}

func referencePage(number int) model.ComposedPage {
	question := model.ComposedQuestion{
		QuestionDefinition: model.QuestionDefinition{
			ID:                   model.CertificateReferenceQuestionID,
			Type:                 model.QuestionText,
			Text:                 "Certificate reference number",
			RepeatPerCertificate: true,
			Constraints: []model.Constraint{{
				Type:    model.ConstraintRequired,
				Message: "Enter a certificate reference number",
			}},
		},
		QuestionOrder: 1,
		PageNumber:    number,
	}
	return model.ComposedPage{
		PageNumber:      number,
		Kind:            model.CertificateLevel,
		Title:           "Certificate reference number",
		OccurrenceCount: 1,
		Questions:       []model.ComposedQuestion{question},
	}
}

// appendCustomPages numbers the injected pages after everything already
// composed, preserving the order the provider supplied them in. The
// questions are copied before renumbering; the provider's pages stay as
// they were.
func appendCustomPages(pages, custom []model.ComposedPage) []model.ComposedPage {
	max := 0
	for _, p := range pages {
		if p.PageNumber > max {
			max = p.PageNumber
		}
	}
	for _, cp := range custom {
		cp.PageNumber = max + 1
		questions := make([]model.ComposedQuestion, len(cp.Questions))
		copy(questions, cp.Questions)
		for i := range questions {
			questions[i].PageNumber = cp.PageNumber
		}
		cp.Questions = questions
		if cp.OccurrenceCount < 1 {
			cp.OccurrenceCount = 1
		}
		pages = append(pages, cp)
		max++
	}
	return pages
}

// filterScope removes hidden questions, drops pages left empty and
// renumbers the survivors so page numbers stay contiguous.
func filterScope(pages []model.ComposedPage, scope ScopePredicate) []model.ComposedPage {
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})

	kept := make([]model.ComposedPage, 0, len(pages))
	for _, p := range pages {
		questions := make([]model.ComposedQuestion, 0, len(p.Questions))
		for _, q := range p.Questions {
			if scope(q) {
				questions = append(questions, q)
			}
		}
		if len(questions) == 0 {
			continue
		}
		p.Questions = questions
		kept = append(kept, p)
	}

	for i := range kept {
		kept[i].PageNumber = i + 1
		for j := range kept[i].Questions {
			kept[i].Questions[j].PageNumber = i + 1
		}
	}
	return kept
}
