package documents

import (
	"time"

	"healthmate-backend/internal/sections"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID   string    `json:"documentId"`
	FileName     string    `json:"fileName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	UploadedAt   time.Time `json:"uploadedAt"`
	SectionCount int       `json:"sectionCount,omitempty"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		UploadedAt: doc.CreatedAt,
	}
}

// SectionResponse is the outward-facing representation of a section.
type SectionResponse struct {
	SectionID int64  `json:"sectionId"`
	Content   string `json:"content"`
	Embedded  bool   `json:"embedded"`
}

func toSectionResponse(s sections.Section) SectionResponse {
	return SectionResponse{
		SectionID: s.ID,
		Content:   s.Content,
		Embedded:  s.Embedded(),
	}
}
