package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrade/exportcert/model"
)

var errUnknownForm = errors.New("unknown form")

type fakeCatalog map[string]model.FormDefinition

func (c fakeCatalog) FormByNameVersion(_ context.Context, name, version string) (model.FormDefinition, error) {
	form, ok := c[name+"/"+version]
	if !ok {
		return model.FormDefinition{}, errUnknownForm
	}
	return form, nil
}

func question(id int, qtype model.QuestionType) model.QuestionDefinition {
	return model.QuestionDefinition{ID: id, Type: qtype, Text: "question"}
}

func primaryForm() model.FormDefinition {
	commodity := question(201, model.QuestionText)
	commodity.RepeatPerCertificate = true
	weight := question(202, model.QuestionDecimal)
	weight.RepeatPerCertificate = true

	return model.FormDefinition{
		Name:    "EHC-8361",
		Version: "2.0",
		Pages: []model.PageDefinition{
			{
				PageID:    1,
				PageOrder: 1,
				Title:     "Consignment details",
				Questions: []model.QuestionDefinition{
					question(101, model.QuestionText),
					question(102, model.QuestionDate),
					question(103, model.QuestionSingleSelect),
				},
			},
			{
				PageID:    2,
				PageOrder: 2,
				Title:     "Commodities",
				Questions: []model.QuestionDefinition{commodity, weight},
			},
		},
	}
}

func secondaryForm() model.FormDefinition {
	return model.FormDefinition{
		Name:    "AUTHORITY",
		Version: "1.0",
		Pages: []model.PageDefinition{{
			PageID:    1,
			PageOrder: 1,
			Title:     "Exporter details",
			Questions: []model.QuestionDefinition{
				question(1, model.QuestionText),
				question(2, model.QuestionText),
			},
		}},
	}
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"EHC-8361/2.0":  primaryForm(),
		"AUTHORITY/1.0": secondaryForm(),
	}
}

func pageNumbers(s model.ComposedSchema) []int {
	numbers := make([]int, 0, len(s.Pages))
	for _, p := range s.Pages {
		numbers = append(numbers, p.PageNumber)
	}
	return numbers
}

func TestSchemaMergesBothDocuments(t *testing.T) {
	secondary := model.NameVersion{Name: "AUTHORITY", Version: "1.0"}
	schema, err := Schema(context.Background(), testCatalog(),
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, &secondary, nil, nil)
	require.NoError(t, err)

	// secondary page, synthesized reference page, then the two primary pages
	require.Equal(t, []int{1, 2, 3, 4}, pageNumbers(schema))

	assert.Equal(t, model.ApplicationLevel, schema.Pages[0].Kind)
	assert.Equal(t, "Exporter details", schema.Pages[0].Title)

	ref := schema.Pages[1]
	assert.Equal(t, model.CertificateLevel, ref.Kind)
	require.Len(t, ref.Questions, 1)
	assert.Equal(t, model.CertificateReferenceQuestionID, ref.Questions[0].ID)

	assert.Equal(t, model.CommonForAllCertificates, schema.Pages[2].Kind)
	assert.Equal(t, model.CertificateLevel, schema.Pages[3].Kind)
}

func TestSchemaReferencePagePrecedesPrimaryPages(t *testing.T) {
	schema, err := Schema(context.Background(), testCatalog(),
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, nil, nil, nil)
	require.NoError(t, err)

	refPages := 0
	refNumber := 0
	for _, p := range schema.Pages {
		if len(p.Questions) == 1 && p.Questions[0].ID == model.CertificateReferenceQuestionID {
			refPages++
			refNumber = p.PageNumber
		}
	}
	require.Equal(t, 1, refPages)
	assert.Equal(t, 1, refNumber, "reference page must be the lowest-numbered primary page")
}

func TestSchemaNoReferencePageWithoutCertificateLevel(t *testing.T) {
	cat := testCatalog()
	form := cat["EHC-8361/2.0"]
	for i := range form.Pages {
		for j := range form.Pages[i].Questions {
			form.Pages[i].Questions[j].RepeatPerCertificate = false
		}
	}
	cat["EHC-8361/2.0"] = form

	schema, err := Schema(context.Background(), cat,
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, nil, nil, nil)
	require.NoError(t, err)

	require.Equal(t, []int{1, 2}, pageNumbers(schema))
	for _, p := range schema.Pages {
		assert.Equal(t, model.CommonForAllCertificates, p.Kind)
	}
}

func TestSchemaOfflinePrimary(t *testing.T) {
	secondary := model.NameVersion{Name: "AUTHORITY", Version: "1.0"}
	schema, err := Schema(context.Background(), testCatalog(),
		model.NameVersion{Name: "EHC-8361", Version: model.OfflineVersion}, &secondary, nil, nil)
	require.NoError(t, err)

	require.Equal(t, []int{1}, pageNumbers(schema))
	assert.Equal(t, "Exporter details", schema.Pages[0].Title)
}

func TestSchemaCustomPagesNumberedLast(t *testing.T) {
	custom := []model.ComposedPage{{
		Kind:  model.ApplicationLevel,
		Title: "Supporting documents",
		Questions: []model.ComposedQuestion{{
			QuestionDefinition: question(model.UploadQuestionID, model.QuestionUpload),
			QuestionOrder:      1,
		}},
	}}

	secondary := model.NameVersion{Name: "AUTHORITY", Version: "1.0"}
	schema, err := Schema(context.Background(), testCatalog(),
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, &secondary, nil, custom)
	require.NoError(t, err)

	require.Equal(t, []int{1, 2, 3, 4, 5}, pageNumbers(schema))
	last := schema.Pages[len(schema.Pages)-1]
	assert.Equal(t, "Supporting documents", last.Title)
	assert.Equal(t, 1, last.OccurrenceCount)
	require.Len(t, last.Questions, 1)
	assert.Equal(t, 5, last.Questions[0].PageNumber)
}

func TestSchemaOccurrenceCountFromTemplateFields(t *testing.T) {
	cat := testCatalog()
	form := cat["EHC-8361/2.0"]
	form.Pages[1].Questions[0].TemplateFields = []string{"Commodity_1", "Commodity_2", "Commodity_3"}
	cat["EHC-8361/2.0"] = form

	schema, err := Schema(context.Background(), cat,
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, nil, nil, nil)
	require.NoError(t, err)

	commodities, ok := schema.PageByNumber(3)
	require.True(t, ok)
	assert.Equal(t, "Commodities", commodities.Title)
	assert.Equal(t, 3, commodities.OccurrenceCount)

	details, ok := schema.PageByNumber(2)
	require.True(t, ok)
	assert.Equal(t, 1, details.OccurrenceCount)
}

func TestSchemaScopeFiltersQuestionsAndRenumbers(t *testing.T) {
	cat := testCatalog()
	form := cat["AUTHORITY/1.0"]
	for i := range form.Pages[0].Questions {
		form.Pages[0].Questions[i].Scope = "CERTIFIER"
	}
	cat["AUTHORITY/1.0"] = form

	exporterOnly := func(q model.ComposedQuestion) bool { return q.Scope == "" }

	secondary := model.NameVersion{Name: "AUTHORITY", Version: "1.0"}
	schema, err := Schema(context.Background(), cat,
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, &secondary, exporterOnly, nil)
	require.NoError(t, err)

	// the whole secondary page disappears and numbering closes the gap
	require.Equal(t, []int{1, 2, 3}, pageNumbers(schema))
	for _, p := range schema.Pages {
		assert.NotEqual(t, "Exporter details", p.Title)
		for _, q := range p.Questions {
			assert.Equal(t, p.PageNumber, q.PageNumber)
		}
	}
}

func TestSchemaNotFound(t *testing.T) {
	secondary := model.NameVersion{Name: "MISSING", Version: "1.0"}
	_, err := Schema(context.Background(), testCatalog(),
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, &secondary, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownForm)
}

func TestSchemaDoesNotMutateCatalog(t *testing.T) {
	cat := testCatalog()
	before := cat["EHC-8361/2.0"]

	_, err := Schema(context.Background(), cat,
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, nil, nil, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(primaryForm(), before); diff != "" {
		t.Errorf("catalog mutated (-want +got):\n%s", diff)
	}
}

func TestSchemaLeavesCustomPagesUntouched(t *testing.T) {
	custom := []model.ComposedPage{{
		Kind:  model.ApplicationLevel,
		Title: "Supporting documents",
		Questions: []model.ComposedQuestion{{
			QuestionDefinition: question(model.UploadQuestionID, model.QuestionUpload),
			QuestionOrder:      1,
		}},
	}}
	want := []model.ComposedPage{{
		Kind:  model.ApplicationLevel,
		Title: "Supporting documents",
		Questions: []model.ComposedQuestion{{
			QuestionDefinition: question(model.UploadQuestionID, model.QuestionUpload),
			QuestionOrder:      1,
		}},
	}}

	_, err := Schema(context.Background(), testCatalog(),
		model.NameVersion{Name: "EHC-8361", Version: "2.0"}, nil, nil, custom)
	require.NoError(t, err)

	if diff := cmp.Diff(want, custom); diff != "" {
		t.Errorf("composition changed the custom pages:\n%s", diff)
	}
}
