// Package pages supplies the ready-made pages injected into every composed
// schema alongside the catalog-driven ones.
package pages

import "github.com/veritrade/exportcert/model"

// SupportingDocuments is the injected upload page. The composer assigns
// its final page number; the upload question itself is never validated.
func SupportingDocuments() model.ComposedPage {
	return model.ComposedPage{
		Kind:            model.ApplicationLevel,
		Title:           "Supporting documents",
		OccurrenceCount: 1,
		Questions: []model.ComposedQuestion{{
			QuestionDefinition: model.QuestionDefinition{
				ID:   model.UploadQuestionID,
				Type: model.QuestionUpload,
				Text: "Upload supporting documents",
			},
			QuestionOrder: 1,
		}},
	}
}
