package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultAzureSearchAPIVersion = "2024-07-01"

// AzureSearchRetriever queries an Azure AI Search index over REST.
type AzureSearchRetriever struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	apiVersion string
	topK       int
}

type AzureSearchOption func(*AzureSearchRetriever)

func WithSearchHTTPClient(h *http.Client) AzureSearchOption {
	return func(r *AzureSearchRetriever) { r.httpClient = h }
}

func WithSearchAPIVersion(v string) AzureSearchOption {
	return func(r *AzureSearchRetriever) {
		if v != "" {
			r.apiVersion = v
		}
	}
}

func NewAzureSearchRetriever(endpoint, apiKey string, topK int, opts ...AzureSearchOption) (*AzureSearchRetriever, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("azure search endpoint is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("azure search api key is not set")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	r := &AzureSearchRetriever{
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		apiVersion: DefaultAzureSearchAPIVersion,
		topK:       topK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type azureSearchRequest struct {
	Search string `json:"search"`
	Top    int    `json:"top"`
}

type azureSearchResponse struct {
	Value []azureSearchHit `json:"value"`
}

type azureSearchHit struct {
	Chunk    string `json:"chunk"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

func (r *AzureSearchRetriever) Retrieve(ctx context.Context, index, query string) ([]Document, error) {
	if index == "" {
		return nil, fmt.Errorf("search index name is required")
	}

	u := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		r.endpoint, url.PathEscape(index), url.QueryEscape(r.apiVersion))

	body, err := json.Marshal(azureSearchRequest{Search: query, Top: r.topK})
	if err != nil {
		return nil, fmt.Errorf("error marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error querying index %s: %w", index, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed azureSearchResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshaling search response: %w", err)
	}

	hits := parsed.Value
	if len(hits) > r.topK {
		hits = hits[:r.topK]
	}

	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, Document{Content: h.Chunk, SourceID: h.FileName, URL: h.URL})
	}
	return docs, nil
}
