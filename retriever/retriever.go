package retriever

import "context"

// Document is a ranked search hit. Downstream stages treat it as read-only.
type Document struct {
	Content  string
	SourceID string
	URL      string
}

// Retriever returns the top documents for a query, best first.
// index names the organization's search index.
type Retriever interface {
	Retrieve(ctx context.Context, index, query string) ([]Document, error)
}

const DefaultTopK = 3
