package ports

import "context"

// LinkMetadata is the best-effort preview of a web page
type LinkMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Image       string `json:"image"`
	Source      string `json:"source"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// MetadataExtractor fetches a page and extracts preview metadata. It never
// fails: fetch and parse problems come back as Success=false.
type MetadataExtractor interface {
	Extract(ctx context.Context, rawURL string) LinkMetadata
}
