package search

import (
	"encoding/json"

	"reality-portal/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// MeiliEngine is the optional full-text engine. When selected by
// configuration it replaces the database search procedure behind the
// TextSearcher contract; the ingestion pipeline feeds the index after each
// upsert.
type MeiliEngine struct {
	client *meilisearch.Client
	index  string
}

func NewMeiliEngine(host, apiKey string) *MeiliEngine {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &MeiliEngine{
		client: client,
		index:  "properties",
	}
}

// InitIndex initializes the Meilisearch index
func (e *MeiliEngine) InitIndex() error {
	_, err := e.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        e.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = e.client.Index(e.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"city",
		"address",
	})
	if err != nil {
		return err
	}

	_, err = e.client.Index(e.index).UpdateFilterableAttributes(&[]string{
		"published",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexProperty indexes a single property
func (e *MeiliEngine) IndexProperty(property *models.Property) error {
	_, err := e.client.Index(e.index).AddDocuments([]models.Property{*property})
	return err
}

// IndexProperties indexes multiple properties
func (e *MeiliEngine) IndexProperties(properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	_, err := e.client.Index(e.index).AddDocuments(properties)
	return err
}

// RemoveProperty drops a property from the index (admin delete).
func (e *MeiliEngine) RemoveProperty(id string) error {
	_, err := e.client.Index(e.index).DeleteDocument(id)
	return err
}

// SearchProperties satisfies TextSearcher: ranked hits for a free-text
// query, unpublished rows excluded, capped at the shared result limit.
func (e *MeiliEngine) SearchProperties(query string) ([]models.Property, error) {
	searchRes, err := e.client.Index(e.index).Search(query, &meilisearch.SearchRequest{
		Limit:  50,
		Filter: "published = true",
	})
	if err != nil {
		return nil, err
	}

	properties := make([]models.Property, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		// Round-trip through JSON rather than walking the raw hit map.
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var property models.Property
		if err := json.Unmarshal(hitJSON, &property); err != nil {
			continue
		}
		properties = append(properties, property)
	}

	return properties, nil
}
