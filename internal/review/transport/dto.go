// Package transport holds the review API request and response shapes.
package transport

import (
	"time"

	"cog_mailing_sync/internal/review"
)

// ListItemsRequest is bound from the query string.
type ListItemsRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=open acknowledged"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// AcknowledgeRequest is the optional body of an acknowledge call.
type AcknowledgeRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

// ListItemsResponse is a page of review items.
type ListItemsResponse struct {
	Items []review.Item `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// SnapshotLinkResponse is a presigned link to an archived Gaze response.
type SnapshotLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
