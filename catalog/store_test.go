package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrade/exportcert/catalog"
	"github.com/veritrade/exportcert/config"
	"github.com/veritrade/exportcert/database"
	"github.com/veritrade/exportcert/model"
)

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	db, err := database.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "catalog.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return catalog.NewStore(db)
}

func sampleForm() model.FormDefinition {
	return model.FormDefinition{
		Name:    "EHC-8361",
		Version: "2.0",
		Title:   "Export health certificate 8361",
		Pages: []model.PageDefinition{
			{
				PageID:    1,
				PageOrder: 1,
				Title:     "Consignment details",
				Questions: []model.QuestionDefinition{
					{
						ID:   101,
						Type: model.QuestionText,
						Text: "Who is the consignor?",
						Constraints: []model.Constraint{
							{Type: model.ConstraintRequired, Message: "Enter the consignor"},
							{Type: model.ConstraintMaxLength, Message: "Too long", Value: "100"},
						},
					},
					{
						ID:      102,
						Type:    model.QuestionSingleSelect,
						Text:    "Destination country",
						Options: []model.Option{{Value: "FR", Label: "France"}, {Value: "DE", Label: "Germany"}},
					},
				},
			},
			{
				PageID:    2,
				PageOrder: 2,
				Title:     "Commodities",
				Questions: []model.QuestionDefinition{{
					ID:                   201,
					Type:                 model.QuestionText,
					Text:                 "Commodity",
					Scope:                "CERTIFIER",
					RepeatPerCertificate: true,
					TemplateFields:       []string{"Commodity_1", "Commodity_2"},
				}},
			},
		},
	}
}

func TestFormRoundTrip(t *testing.T) {
	store := testStore(t)
	want := sampleForm()

	require.NoError(t, store.SaveForm(context.Background(), want))

	got, err := store.FormByNameVersion(context.Background(), "EHC-8361", "2.0")
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("loaded form differs (-want +got):\n%s", diff)
	}
}

func TestFormVersionsAreImmutable(t *testing.T) {
	store := testStore(t)
	form := sampleForm()

	require.NoError(t, store.SaveForm(context.Background(), form))
	assert.Error(t, store.SaveForm(context.Background(), form), "republishing the same (name, version) must fail")

	form.Version = "3.0"
	assert.NoError(t, store.SaveForm(context.Background(), form))
}

func TestFormNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.FormByNameVersion(context.Background(), "NOPE", "1.0")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestHealthCertificateUpsert(t *testing.T) {
	store := testStore(t)
	hc := model.HealthCertificate{
		Number:      "EHC-8361",
		Title:       "Live bivalve molluscs",
		Multiple:    true,
		FormName:    "EHC-8361",
		FormVersion: "2.0",
	}

	require.NoError(t, store.SaveHealthCertificate(context.Background(), hc))

	hc.MaxCertificates = 5
	require.NoError(t, store.SaveHealthCertificate(context.Background(), hc))

	got, err := store.HealthCertificateByNumber(context.Background(), "EHC-8361")
	require.NoError(t, err)
	assert.Equal(t, hc, got)

	_, err = store.HealthCertificateByNumber(context.Background(), "MISSING")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
