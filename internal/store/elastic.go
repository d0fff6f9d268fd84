package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/tabscout/tabscout/pkg/models"
)

// ElasticConfig holds Elasticsearch connection configuration.
type ElasticConfig struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
}

// Elastic stores judge records in an Elasticsearch index. The document ID is
// the judge's external key, so indexing the same judge twice overwrites in
// place instead of duplicating.
type Elastic struct {
	es    *elasticsearch.Client
	index string
}

// NewElastic creates an Elasticsearch-backed store.
func NewElastic(config ElasticConfig) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Elastic{es: es, index: config.Index}, nil
}

// Ping checks if Elasticsearch is available.
func (s *Elastic) Ping(ctx context.Context) bool {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// indexMapping defines the ES index mapping for judge records.
var indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"name": { "type": "text" },
			"school": { "type": "text" },
			"paradigm": { "type": "text", "analyzer": "english" },
			"source_url": { "type": "keyword" },
			"ballots": {
				"type": "nested",
				"properties": {
					"tournament": { "type": "keyword" },
					"level": { "type": "keyword" },
					"date": { "type": "date", "format": "yyyy-MM-dd||epoch_millis" },
					"event": { "type": "keyword" },
					"round": { "type": "keyword" },
					"aff": { "type": "text" },
					"neg": { "type": "text" },
					"vote": { "type": "keyword" },
					"result": { "type": "keyword" }
				}
			},
			"metrics": {
				"properties": {
					"rounds_judged": { "type": "integer" },
					"aff_win_rate": { "type": "float" },
					"panel_rounds": { "type": "integer" },
					"squirrel_rate": { "type": "float" }
				}
			},
			"first_seen": { "type": "date" },
			"updated_at": { "type": "date" }
		}
	}
}`

// CreateIndex creates the index with proper mapping. Safe to call on every
// run; an existing index is left alone.
func (s *Elastic) CreateIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = s.es.Indices.Create(
		s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (s *Elastic) DeleteIndex(ctx context.Context) error {
	res, err := s.es.Indices.Delete([]string{s.index}, s.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Upsert indexes a judge record under its external key.
func (s *Elastic) Upsert(ctx context.Context, judge models.Judge) error {
	data, err := json.Marshal(judge)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	res, err := s.es.Index(
		s.index,
		bytes.NewReader(data),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(judge.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing record %s (status %d): %s", judge.ID, res.StatusCode, res.String())
	}

	return nil
}

// getResponse represents ES get response structure.
type getResponse struct {
	Found  bool         `json:"found"`
	Source models.Judge `json:"_source"`
}

// Get retrieves a judge record by ID.
func (s *Elastic) Get(ctx context.Context, id string) (*models.Judge, error) {
	res, err := s.es.Get(s.index, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !gr.Found {
		return nil, ErrNotFound
	}

	return &gr.Source, nil
}

// searchResponse represents ES search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Judge `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// List returns all judge records in the index.
func (s *Elastic) List(ctx context.Context) ([]models.Judge, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []map[string]interface{}{{"id": "asc"}},
		"size":  10000,
	}

	data, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("list error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	judges := make([]models.Judge, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		judges[i] = hit.Source
	}
	return judges, nil
}

// Remove deletes a single record by ID.
func (s *Elastic) Remove(ctx context.Context, id string) error {
	res, err := s.es.Delete(s.index, id, s.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// Refresh forces an index refresh (useful for testing).
func (s *Elastic) Refresh(ctx context.Context) error {
	res, err := s.es.Indices.Refresh(
		s.es.Indices.Refresh.WithContext(ctx),
		s.es.Indices.Refresh.WithIndex(s.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}
