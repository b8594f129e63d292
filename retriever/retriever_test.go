package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAzureSearchRetriever_Retrieve(t *testing.T) {
	var gotPath, gotVersion, gotKey string
	var gotBody azureSearchRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotVersion = r.URL.Query().Get("api-version")
		gotKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[
			{"@search.score": 3.1, "chunk": "Employees receive 20 vacation days.", "file_name": "leave.pdf", "url": "https://docs/leave.pdf"},
			{"@search.score": 2.4, "chunk": "Sick leave is 10 days.", "file_name": "sick.pdf"},
			{"@search.score": 1.9, "chunk": "Holidays list.", "file_name": "holidays.pdf"},
			{"@search.score": 0.5, "chunk": "Extra.", "file_name": "extra.pdf"}
		]}`))
	}))
	defer srv.Close()

	r, err := NewAzureSearchRetriever(srv.URL+"/", "secret", 3)
	require.NoError(t, err)

	docs, err := r.Retrieve(context.Background(), "acme-index", "vacation days")
	require.NoError(t, err)

	assert.Equal(t, "/indexes/acme-index/docs/search", gotPath)
	assert.Equal(t, DefaultAzureSearchAPIVersion, gotVersion)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, azureSearchRequest{Search: "vacation days", Top: 3}, gotBody)

	require.Len(t, docs, 3)
	assert.Equal(t, Document{Content: "Employees receive 20 vacation days.", SourceID: "leave.pdf", URL: "https://docs/leave.pdf"}, docs[0])
	assert.Equal(t, "sick.pdf", docs[1].SourceID)
	assert.Equal(t, "holidays.pdf", docs[2].SourceID)
}

func TestAzureSearchRetriever_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("index offline"))
	}))
	defer srv.Close()

	r, err := NewAzureSearchRetriever(srv.URL, "secret", 0, WithSearchAPIVersion("2023-11-01"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, r.topK)
	assert.Equal(t, "2023-11-01", r.apiVersion)

	_, err = r.Retrieve(context.Background(), "acme-index", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = r.Retrieve(context.Background(), "", "q")
	assert.Error(t, err)

	_, err = NewAzureSearchRetriever("", "secret", 3)
	assert.Error(t, err)
	_, err = NewAzureSearchRetriever(srv.URL, "", 3)
	assert.Error(t, err)
}

func TestAzureSearchRetriever_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r, err := NewAzureSearchRetriever(srv.URL, "secret", 3)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = r.Retrieve(ctx, "acme-index", "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestToDocuments(t *testing.T) {
	hits := []odm.SearchHit[db.DocumentModel]{
		{Doc: db.DocumentModel{DocumentID: "1", FileName: "leave.pdf", Chunk: "a", URL: "https://docs/leave.pdf"}},
		{Doc: db.DocumentModel{DocumentID: "1", FileName: "leave.pdf", Chunk: "a"}},
		{Doc: db.DocumentModel{DocumentID: "2", Chunk: "b"}},
		{Doc: db.DocumentModel{DocumentID: "3", FileName: "c.pdf", Chunk: "c"}},
		{Doc: db.DocumentModel{DocumentID: "4", FileName: "d.pdf", Chunk: "d"}},
	}

	docs, err := toDocuments(context.Background(), hits, 3)
	require.NoError(t, err)
	assert.Equal(t, []Document{
		{Content: "a", SourceID: "leave.pdf", URL: "https://docs/leave.pdf"},
		{Content: "b", SourceID: "2"},
		{Content: "c", SourceID: "c.pdf"},
	}, docs)

	empty, err := toDocuments(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestToDocuments_KeepsRankOrderForLargeResults(t *testing.T) {
	hits := make([]odm.SearchHit[db.DocumentModel], 0, 40)
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("doc-%02d", i%20)
		hits = append(hits, odm.SearchHit[db.DocumentModel]{Doc: db.DocumentModel{DocumentID: id, Chunk: id}})
	}

	docs, err := toDocuments(context.Background(), hits, 25)
	require.NoError(t, err)
	require.Len(t, docs, 20)
	for i, d := range docs {
		assert.Equal(t, fmt.Sprintf("doc-%02d", i), d.SourceID)
	}
}

func TestMongoRetriever_RequiresIndex(t *testing.T) {
	r := newMongoRetrieverWith(func(string) odm.OdmCollectionInterface[db.DocumentModel] {
		t.Fatal("collection should not be resolved without an index")
		return nil
	}, 0)
	assert.Equal(t, DefaultTopK, r.topK)

	_, err := r.Retrieve(context.Background(), "", "q")
	assert.Error(t, err)
}
