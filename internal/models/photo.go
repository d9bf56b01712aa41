package models

// Photo is an image of a bill, owned by exactly one purchase.
type Photo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UploadDate   Date   `json:"upload_date"`
	Size         string `json:"size"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}
