package model

// OfflineVersion is the sentinel form version meaning the primary document
// does not exist in the catalog and the schema is built without it.
const OfflineVersion = "OFFLINE"

// Reserved question ids. The certificate reference question is synthesized
// by the composer; the upload question is injected as a custom page and is
// never validated.
const (
	CertificateReferenceQuestionID = 9999
	UploadQuestionID               = 9998
)

type QuestionType string

const (
	QuestionText         QuestionType = "TEXT"
	QuestionDate         QuestionType = "DATE"
	QuestionNumber       QuestionType = "NUMBER"
	QuestionDecimal      QuestionType = "DECIMAL"
	QuestionSingleSelect QuestionType = "SINGLE_SELECT"
	QuestionMultiSelect  QuestionType = "MULTI_SELECT"
	QuestionUpload       QuestionType = "UPLOAD"
)

type ConstraintType string

const (
	ConstraintRequired  ConstraintType = "REQUIRED"
	ConstraintMaxLength ConstraintType = "MAX_LENGTH"
	ConstraintMinValue  ConstraintType = "MIN_VALUE"
	ConstraintMaxValue  ConstraintType = "MAX_VALUE"
)

// NameVersion identifies one published form definition in the catalog.
type NameVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (nv NameVersion) Offline() bool {
	return nv.Version == OfflineVersion
}

type FormDefinition struct {
	Name    string           `json:"name"`
	Version string           `json:"version"`
	Title   string           `json:"title"`
	Pages   []PageDefinition `json:"pages"`
}

type PageDefinition struct {
	PageID    int                  `json:"pageId"`
	PageOrder int                  `json:"pageOrder"`
	Title     string               `json:"title"`
	Questions []QuestionDefinition `json:"questions"`
}

type QuestionDefinition struct {
	ID   int          `json:"id"`
	Type QuestionType `json:"type"`
	Text string       `json:"text"`
	// Scope restricts the question to requesters holding the named role
	// (e.g. "CERTIFIER"). Empty means visible to everyone.
	Scope string `json:"scope,omitempty"`
	// RepeatPerCertificate marks questions answered once per certificate
	// instance in a multi-certificate application.
	RepeatPerCertificate bool         `json:"repeatPerCertificate,omitempty"`
	Constraints          []Constraint `json:"constraints,omitempty"`
	Options              []Option     `json:"options,omitempty"`
	// TemplateFields are the document fields this question projects onto.
	// More than one binding on a question marks its page as repeatable.
	TemplateFields []string `json:"templateFields,omitempty"`
}

type Constraint struct {
	Type    ConstraintType `json:"type"`
	Message string         `json:"message"`
	// Value parameterizes the constraint (e.g. the length for MAX_LENGTH).
	Value string `json:"value,omitempty"`
}

type Option struct {
	Value         string `json:"value"`
	Label         string `json:"label"`
	TemplateField string `json:"templateField,omitempty"`
}

// HealthCertificate is the catalog record for one certificate kind, keyed
// by certificate number. It names the primary form driving the application
// content (version may be OFFLINE) and whether several certificate
// instances may share one application.
type HealthCertificate struct {
	Number          string `json:"number"`
	Title           string `json:"title"`
	Multiple        bool   `json:"multipleApplication"`
	MaxCertificates int    `json:"maxCertificates,omitempty"`
	FormName        string `json:"formName"`
	FormVersion     string `json:"formVersion"`
}
