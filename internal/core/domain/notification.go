package domain

// FilingMessage identifies one filing-status change to render an email for.
type FilingMessage struct {
	FilingID int64  `json:"filingId"`
	Type     string `json:"type"`
	Option   string `json:"option"`
}

type Email struct {
	Recipients []string     `json:"recipients"`
	RequestBy  string       `json:"requestBy,omitempty"`
	Content    EmailContent `json:"content"`
}

type EmailContent struct {
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Attachments []EmailAttachment `json:"attachments"`
}

type EmailAttachment struct {
	FileName  string `json:"fileName"`
	FileBytes []byte `json:"fileBytes"`
}

// NameRequest is the reservation record returned by the name-request service.
type NameRequest struct {
	State     string    `json:"state"`
	LegalName string    `json:"legalName"`
	LegalType LegalType `json:"legalType"`
}

const NameRequestStateApproved = "APPROVED"
