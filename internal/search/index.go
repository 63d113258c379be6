package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/pay2me/storefront/internal/models"
)

var ErrDisabled = errors.New("search is not configured")

type Document struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CategoryID  *uint  `json:"category_id,omitempty"`
	Featured    bool   `json:"featured"`
	InStock     bool   `json:"in_stock"`
}

func DocumentFrom(p *models.Product) Document {
	return Document{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		CategoryID:  p.CategoryID,
		Featured:    p.Featured,
		InStock:     p.Quantity > 0,
	}
}

// Index is safe to use with a nil client; every call then returns ErrDisabled.
type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func (i *Index) enabled() bool {
	return i != nil && i.ES != nil
}

// IndexProduct upserts active products and removes everything else.
func (i *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	if !i.enabled() {
		return ErrDisabled
	}
	id := strconv.FormatUint(uint64(p.ID), 10)

	if !p.Lifecycle.IsActive() {
		res, err := i.ES.Delete(i.Name, id, i.ES.Delete.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("delete document %s: %w", id, err)
		}
		defer res.Body.Close()
		if res.IsError() && res.StatusCode != 404 {
			return fmt.Errorf("delete document %s: %s", id, res.Status())
		}
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(DocumentFrom(p)); err != nil {
		return err
	}
	res, err := i.ES.Index(i.Name, &buf,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index document %s: %s: %s", id, res.Status(), body)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []Document, error) {
	if !i.enabled() {
		return 0, nil, ErrDisabled
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]Document, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		docs[n] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
