package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/bubba_express/services/catalog/internal/models"
)

// Index keeps a full-text copy of the catalog.
type Index interface {
	Put(ctx context.Context, p *models.Product) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, from, size int) (int64, []models.Product, error)
}

type ES struct {
	Client *elasticsearch.Client
	Index  string
}

const mapping = `{
  "mappings": {
    "properties": {
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "price":       {"type": "scaled_float", "scaling_factor": 100},
      "stock":       {"type": "integer"},
      "popular":     {"type": "boolean"}
    }
  }
}`

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return client, nil
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (e *ES) EnsureIndex(ctx context.Context) error {
	res, err := e.Client.Indices.Exists([]string{e.Index}, e.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = e.Client.Indices.Create(e.Index,
		e.Client.Indices.Create.WithContext(ctx),
		e.Client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index create", res.Status(), res.Body)
	}
	return nil
}

func (e *ES) Put(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := e.Client.Index(e.Index, bytes.NewReader(body),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(p.ID.String()),
		e.Client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index product", res.Status(), res.Body)
	}
	return nil
}

func (e *ES) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := e.Client.Delete(e.Index, id.String(),
		e.Client.Delete.WithContext(ctx),
		e.Client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete product", res.Status(), res.Body)
	}
	return nil
}

func (e *ES) Search(ctx context.Context, q string, from, size int) (int64, []models.Product, error) {
	body, err := Query(q, from, size)
	if err != nil {
		return 0, nil, err
	}

	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.Index),
		e.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}
	return decodeHits(res.Body)
}

// Query builds the multi_match request body.
func Query(q string, from, size int) ([]byte, error) {
	return json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	})
}

func decodeHits(r io.Reader) (int64, []models.Product, error) {
	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]models.Product, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		products = append(products, h.Source)
	}
	return out.Hits.Total.Value, products, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("%s: %s: %s", op, status, bytes.TrimSpace(b))
}
