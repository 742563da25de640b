package docstore

import "context"

// Data is one schemaless document payload.
type Data = map[string]interface{}

// Filter narrows a query to documents whose field equals the value.
type Filter struct {
	Field string
	Value interface{}
}

// Order sorts query results by one document field.
type Order struct {
	Field string
	Desc  bool
}

// Store is the document-store contract: per-record schemaless storage
// with merge writes, as exposed by hosted document databases.
type Store interface {
	// Get returns the document payload, or nil when the document is absent.
	Get(ctx context.Context, collection, id string) (Data, error)

	// Set writes a document. With merge=true the payload is shallow-merged
	// into the existing document; otherwise it replaces it.
	Set(ctx context.Context, collection, id string, data Data, merge bool) error

	// Query returns up to limit documents matching all filters.
	Query(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Data, error)
}
