package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides the place search index
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexPlace indexes a place document
func (c *ElasticClient) IndexPlace(ctx context.Context, place *models.Place) error {
	log.Debug().Str("place_id", place.ID.String()).Msg("indexing place")

	doc := map[string]interface{}{
		"id":          place.ID.String(),
		"trip_id":     place.TripID.String(),
		"name":        place.Name,
		"description": place.Description,
		"category":    place.Category,
		"address":     place.Address,
		"location": map[string]float64{
			"lat": place.Latitude,
			"lon": place.Longitude,
		},
		"created_at": place.CreatedAt,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal place document")
	}

	req := esapi.IndexRequest{
		Index:      config.FormatIndex(c.config, c.config.Index),
		DocumentID: place.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("Elasticsearch returned %s indexing place %s", res.Status(), place.ID)
	}

	return nil
}

// DeletePlace removes a place document from the index
func (c *ElasticClient) DeletePlace(ctx context.Context, placeID string) error {
	req := esapi.DeleteRequest{
		Index:      config.FormatIndex(c.config, c.config.Index),
		DocumentID: placeID,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	// 404 on delete is fine: the place was never indexed
	if res.IsError() && res.StatusCode != 404 {
		return errors.Errorf("Elasticsearch returned %s deleting place %s", res.Status(), placeID)
	}

	return nil
}

// PlaceHit is one search result
type PlaceHit struct {
	ID       string  `json:"id"`
	TripID   string  `json:"trip_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Address  string  `json:"address"`
	Score    float64 `json:"score"`
}

// SearchPlaces runs a full-text query over place names, descriptions and
// addresses, optionally scoped to one trip
func (c *ElasticClient) SearchPlaces(ctx context.Context, query, tripID string, limit int) ([]PlaceHit, error) {
	if limit <= 0 {
		limit = 20
	}

	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "description", "address", "category"},
			},
		},
	}
	if tripID != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"trip_id": tripID},
		})
	}

	body := map[string]interface{}{
		"size":  limit,
		"query": map[string]interface{}{"bool": map[string]interface{}{"must": must}},
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(config.FormatIndex(c.config, c.config.Index)),
		c.client.Search.WithBody(bytes.NewReader(bodyJSON)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.Errorf("Elasticsearch returned %s for place search", res.Status())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read search response")
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse search response")
	}

	hits := make([]PlaceHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		var hit PlaceHit
		if err := json.Unmarshal(h.Source, &hit); err != nil {
			return nil, errors.Wrap(err, "failed to parse search hit")
		}
		hit.Score = h.Score
		hits = append(hits, hit)
	}

	return hits, nil
}

// Healthcheck pings the cluster
func (c *ElasticClient) Healthcheck(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to ping Elasticsearch")
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elasticsearch ping returned %s", res.Status())
	}
	return nil
}
