package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID     string    `json:"documentId"`
	FileName       string    `json:"fileName"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	SizeBytes      int64     `json:"sizeBytes"`
	Owner          string    `json:"owner"`
	UploadedAt     time.Time `json:"uploadedAt"`
	AllowedReaders []string  `json:"allowedReaders"`
	Status         string    `json:"status"`
	Findings       []string  `json:"findings"`
}

func toResponse(doc Document) DocumentResponse {
	readers := doc.AllowedReaders
	if readers == nil {
		readers = []string{}
	}
	findings := doc.Findings
	if findings == nil {
		findings = []string{}
	}
	return DocumentResponse{
		DocumentID:     doc.ID,
		FileName:       doc.FileName,
		Title:          doc.Title,
		Description:    doc.Description,
		SizeBytes:      doc.SizeBytes,
		Owner:          doc.Owner,
		UploadedAt:     doc.UploadedAt,
		AllowedReaders: readers,
		Status:         string(doc.Status),
		Findings:       findings,
	}
}
