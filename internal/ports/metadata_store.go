package ports

import "context"

// MetadataStore writes dataset-wide metadata artifacts under the meta directory.
// Writes are atomic: readers see either the old file or the complete new one.
type MetadataStore interface {
	// WriteJSON writes v as one indented JSON document named name.
	WriteJSON(ctx context.Context, name string, v any) error

	// WriteJSONLines writes one compact JSON object per row.
	// An empty rows slice produces an empty file.
	WriteJSONLines(ctx context.Context, name string, rows []any) error
}
