package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const companyMapping = `{
  "mappings": {
    "properties": {
      "id":                 {"type": "keyword"},
      "title":              {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "description":        {"type": "text"},
      "url":                {"type": "keyword"},
      "punchcard_lifetime": {"type": "integer"},
      "created":            {"type": "date"}
    }
  }
}`

// ElasticConfig configures the Elasticsearch-backed index.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// ElasticIndex stores company documents in a single Elasticsearch index.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(cfg ElasticConfig) (*ElasticIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticIndex{client: client, index: cfg.Index}, nil
}

type esErrorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type esSearchResult struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (ix *ElasticIndex) Search(ctx context.Context, query string, from, size int) ([]Document, error) {
	body := map[string]interface{}{
		"from":  from,
		"size":  size,
		"query": buildQuery(query),
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, wrap("encode query", err)
	}

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(ix.index),
		ix.client.Search.WithBody(bytes.NewReader(buf)),
	)
	if err != nil {
		return nil, wrap("query", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, wrap("query", responseError(res))
	}

	var result esSearchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, wrap("decode hits", err)
	}

	docs := make([]Document, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		doc := hit.Source
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func buildQuery(query string) map[string]interface{} {
	if query == "" {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"multi_match": map[string]interface{}{
			"query":     query,
			"fields":    []string{"title^2", "description"},
			"fuzziness": "AUTO",
		},
	}
}

func (ix *ElasticIndex) IndexDocument(ctx context.Context, id string, doc Document) error {
	doc.ID = id
	buf, err := json.Marshal(doc)
	if err != nil {
		return wrap("encode document", err)
	}

	res, err := ix.client.Index(
		ix.index,
		bytes.NewReader(buf),
		ix.client.Index.WithContext(ctx),
		ix.client.Index.WithDocumentID(id),
		ix.client.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return wrap("index document", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return wrap("index document", responseError(res))
	}
	return nil
}

func (ix *ElasticIndex) DeleteDocument(ctx context.Context, id string) error {
	res, err := ix.client.Delete(
		ix.index,
		id,
		ix.client.Delete.WithContext(ctx),
		ix.client.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return wrap("delete document", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return wrap("delete document", responseError(res))
	}
	return nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (ix *ElasticIndex) EnsureIndex(ctx context.Context) error {
	res, err := ix.client.Indices.Exists([]string{ix.index}, ix.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return wrap("check index", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ix.create(ctx)
	default:
		return wrap("check index", fmt.Errorf("unexpected status %d", res.StatusCode))
	}
}

func (ix *ElasticIndex) Reset(ctx context.Context) error {
	res, err := ix.client.Indices.Delete(
		[]string{ix.index},
		ix.client.Indices.Delete.WithContext(ctx),
		ix.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return wrap("drop index", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return wrap("drop index", responseError(res))
	}
	return ix.create(ctx)
}

func (ix *ElasticIndex) create(ctx context.Context) error {
	res, err := ix.client.Indices.Create(
		ix.index,
		ix.client.Indices.Create.WithContext(ctx),
		ix.client.Indices.Create.WithBody(bytes.NewReader([]byte(companyMapping))),
	)
	if err != nil {
		return wrap("create index", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return wrap("create index", responseError(res))
	}
	return nil
}

func (ix *ElasticIndex) Ping(ctx context.Context) error {
	res, err := ix.client.Ping(ix.client.Ping.WithContext(ctx))
	if err != nil {
		return wrap("ping", err)
	}
	res.Body.Close()

	if res.IsError() {
		return wrap("ping", fmt.Errorf("status %d", res.StatusCode))
	}
	return nil
}

// responseError turns an error response into ErrIndexNotFound or a plain
// error carrying the backend's reason.
func responseError(res *esapi.Response) error {
	raw, _ := io.ReadAll(res.Body)

	var body esErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Type != "" {
		if body.Error.Type == "index_not_found_exception" {
			return ErrIndexNotFound
		}
		return fmt.Errorf("%s: %s", body.Error.Type, body.Error.Reason)
	}
	return fmt.Errorf("status %d: %s", res.StatusCode, bytes.TrimSpace(raw))
}
