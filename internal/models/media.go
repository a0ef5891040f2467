package models

import (
	"time"
)

type MediaType string

const (
	MediaTypePDF   MediaType = "pdf"
	MediaTypeImage MediaType = "image"
	MediaTypeDoc   MediaType = "doc"
	MediaTypeZip   MediaType = "zip"
	MediaTypeOther MediaType = "other"
)

func IsValidMediaType(t MediaType) bool {
	switch t {
	case MediaTypePDF, MediaTypeImage, MediaTypeDoc, MediaTypeZip, MediaTypeOther:
		return true
	}
	return false
}

type Media struct {
	ID          string    `json:"id" db:"id"`
	URL         string    `json:"url" db:"url"`
	Type        MediaType `json:"type" db:"type"`
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
	Description string    `json:"description" db:"description"`
}

// MediaLink is one row of a parent↔media association table. The link is
// soft-deletable independently of the media object itself.
type MediaLink struct {
	ParentID  string     `json:"parent_id" db:"parent_id"`
	MediaID   string     `json:"media_id" db:"media_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
