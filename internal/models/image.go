package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageType tags what an uploaded image belongs to.
type ImageType string

const (
	ImageTypeEvent        ImageType = "event"
	ImageTypeOrganization ImageType = "organization"
	ImageTypeAvatar       ImageType = "avatar"
)

// Image is metadata for an object stored in S3.
type Image struct {
	ID          uuid.UUID `json:"id"`
	Type        ImageType `json:"type"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	S3Key       string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
