package model

type PageKind string

const (
	ApplicationLevel         PageKind = "APPLICATION_LEVEL"
	CommonForAllCertificates PageKind = "COMMON_FOR_ALL_CERTIFICATES"
	CertificateLevel         PageKind = "CERTIFICATE_LEVEL"
)

// ComposedSchema is the single ordered page sequence assembled at request
// time from the primary and secondary documents plus injected pages. It is
// never persisted: published versions and scope rules may change between
// requests.
type ComposedSchema struct {
	Pages []ComposedPage `json:"pages"`
}

type ComposedPage struct {
	PageNumber int      `json:"pageNumber"`
	Kind       PageKind `json:"kind"`
	Title      string   `json:"title"`
	// OccurrenceCount > 1 marks a repeatable page.
	OccurrenceCount int                `json:"occurrenceCount"`
	Questions       []ComposedQuestion `json:"questions"`
}

type ComposedQuestion struct {
	QuestionDefinition
	QuestionOrder int `json:"questionOrder"`
	PageNumber    int `json:"pageNumber"`
}

// QuestionsByID indexes every composed question by its form question id.
func (s ComposedSchema) QuestionsByID() map[int]ComposedQuestion {
	byID := make(map[int]ComposedQuestion)
	for _, p := range s.Pages {
		for _, q := range p.Questions {
			byID[q.ID] = q
		}
	}
	return byID
}

// PageByNumber returns the page with the given number, if present.
func (s ComposedSchema) PageByNumber(n int) (ComposedPage, bool) {
	for _, p := range s.Pages {
		if p.PageNumber == n {
			return p, true
		}
	}
	return ComposedPage{}, false
}
