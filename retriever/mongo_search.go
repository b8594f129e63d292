package retriever

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/linq"
)

// hits fetched before dedup; results are trimmed to topK
const termSearchLimit = 10

// MongoRetriever runs an Atlas term search over the documents collection.
// Each organization's index name is its tenant database.
type MongoRetriever struct {
	collectionFor func(tenant string) odm.OdmCollectionInterface[db.DocumentModel]
	topK          int
}

func NewMongoRetriever(mongo odm.MongoClient, topK int) *MongoRetriever {
	return newMongoRetrieverWith(func(tenant string) odm.OdmCollectionInterface[db.DocumentModel] {
		return odm.CollectionOf[db.DocumentModel](mongo, tenant)
	}, topK)
}

func newMongoRetrieverWith(collectionFor func(string) odm.OdmCollectionInterface[db.DocumentModel], topK int) *MongoRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &MongoRetriever{collectionFor: collectionFor, topK: topK}
}

func (r *MongoRetriever) Retrieve(ctx context.Context, index, query string) ([]Document, error) {
	if index == "" {
		return nil, fmt.Errorf("search index name is required")
	}

	hits, err := async.Await(r.collectionFor(index).TermSearch(ctx, query, odm.TermSearchParams{
		IndexName: db.DocumentSearchIndexName,
		Path:      db.DocumentSearchPaths,
		Limit:     termSearchLimit,
	}))
	if err != nil {
		return nil, fmt.Errorf("term search on %s: %w", index, err)
	}

	return toDocuments(ctx, hits, r.topK)
}

// toDocuments keeps rank order and drops duplicate chunks.
func toDocuments(ctx context.Context, hits []odm.SearchHit[db.DocumentModel], topK int) ([]Document, error) {
	docs, err := linq.Pipe3(
		linq.FromSlice(ctx, hits),

		linq.Distinct(func(h odm.SearchHit[db.DocumentModel]) string {
			return h.Doc.Id()
		}),

		linq.Select(func(h odm.SearchHit[db.DocumentModel]) Document {
			sourceID := h.Doc.FileName
			if sourceID == "" {
				sourceID = h.Doc.DocumentID
			}
			return Document{Content: h.Doc.Chunk, SourceID: sourceID, URL: h.Doc.URL}
		}),

		linq.ToSlice[Document](),
	)
	if err != nil {
		return nil, err
	}

	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}
