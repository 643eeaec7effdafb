package model

import "time"

type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "DRAFT"
	StatusSubmitted ApplicationStatus = "SUBMITTED"
	StatusClosed    ApplicationStatus = "CLOSED"
)

// Application is one export certificate application. It owns the
// application-level answer set; certificate-level answers live on its
// certificate instances.
type Application struct {
	ID                string                `json:"id"`
	CertificateNumber string                `json:"certificateNumber"`
	Status            ApplicationStatus     `json:"status"`
	Created           time.Time             `json:"created"`
	Answers           []Answer              `json:"answers"`
	Certificates      []CertificateInstance `json:"certificates,omitempty"`
}

func (a Application) Writable() bool {
	return a.Status == StatusDraft
}

// CertificateInstance is one certificate ("consignment") inside a
// multi-certificate application. Reference is the sequential number
// assigned on creation and displayed back to the exporter.
type CertificateInstance struct {
	ID            string   `json:"id"`
	ApplicationID string   `json:"applicationId"`
	Reference     int      `json:"reference"`
	Answers       []Answer `json:"answers"`
}

// ReferenceAnswer returns the value answered for the synthesized
// certificate reference question, if any.
func (c CertificateInstance) ReferenceAnswer() string {
	for _, a := range c.Answers {
		if a.FormQuestionID == CertificateReferenceQuestionID {
			return a.Value
		}
	}
	return ""
}
