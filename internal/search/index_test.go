package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay2me/storefront/internal/models"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) *Index {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &Index{ES: es, Name: "products"}
}

func TestIndex_Search(t *testing.T) {
	var gotBody map[string]any
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/products/_search"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":3,"name":"Mug","price":"9.99","in_stock":true}}]}}`)
	})

	total, docs, err := idx.Search(context.Background(), "mug", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "Mug", docs[0].Name)
	assert.EqualValues(t, 3, docs[0].ID)
	assert.EqualValues(t, 10, gotBody["size"])
}

func TestIndex_IndexProduct(t *testing.T) {
	var method, path string
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})

	p := &models.Product{ID: 5, Name: "Mug", Price: decimal.RequireFromString("4.5"), Quantity: 1, Lifecycle: models.LifecycleActive}
	require.NoError(t, idx.IndexProduct(context.Background(), p))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/products/_doc/5", path)

	p.Lifecycle = models.LifecycleDeleted
	require.NoError(t, idx.IndexProduct(context.Background(), p))
	assert.Equal(t, http.MethodDelete, method)
}

func TestIndex_Disabled(t *testing.T) {
	var idx *Index
	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, (&Index{}).IndexProduct(context.Background(), &models.Product{}), ErrDisabled)
}

func TestDocumentFrom(t *testing.T) {
	d := DocumentFrom(&models.Product{ID: 1, Name: "Mug", Price: decimal.RequireFromString("4.5")})
	assert.Equal(t, "4.50", d.Price)
	assert.False(t, d.InStock)
}
