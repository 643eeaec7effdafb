package model

// Answer is one submitted or persisted response item. Its identity within
// an answer set is (FormQuestionID, PageOccurrence); PageNumber and
// QuestionOrder are carried along for stable re-sorting, never re-derived.
type Answer struct {
	FormQuestionID int    `json:"formQuestionId"`
	PageNumber     int    `json:"pageNumber"`
	PageOccurrence int    `json:"pageOccurrence"`
	QuestionOrder  int    `json:"questionOrder"`
	Value          string `json:"value"`
	Scope          string `json:"scope,omitempty"`
}

type ValidationError struct {
	FormQuestionID int            `json:"formQuestionId"`
	Message        string         `json:"message"`
	ConstraintType ConstraintType `json:"constraintType,omitempty"`
}

// CertificateError summarizes the field errors of one certificate instance
// inside a multi-certificate application.
type CertificateError struct {
	CertificateID string `json:"certificateId"`
	Reference     string `json:"reference,omitempty"`
	ErrorCount    int    `json:"errorCount"`
}

// ValidationReport is the normal, non-exceptional outcome of validation.
// An empty report means the input is acceptable.
type ValidationReport struct {
	Errors       []ValidationError  `json:"errors,omitempty"`
	Common       []string           `json:"common,omitempty"`
	Certificates []CertificateError `json:"certificates,omitempty"`
}

func (r ValidationReport) Empty() bool {
	return len(r.Errors) == 0 && len(r.Common) == 0 && len(r.Certificates) == 0
}
