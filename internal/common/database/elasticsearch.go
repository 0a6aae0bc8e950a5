// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"survey-forms/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchClient holds the client of the submission index.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{Addresses: cfg.Addresses}
	if len(esCfg.Addresses) == 0 && cfg.URL != "" {
		esCfg.Addresses = []string{cfg.URL}
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

// Ping checks the cluster, bounded by pingTimeout.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// submissionMapping stores the payload without indexing it.
const submissionMapping = `{
  "settings": {"number_of_shards": %d, "number_of_replicas": %d},
  "mappings": {
    "properties": {
      "sessionId":   {"type": "keyword"},
      "fileName":    {"type": "keyword"},
      "schemaId":    {"type": "keyword"},
      "dryRun":      {"type": "boolean"},
      "submittedAt": {"type": "date"},
      "payload":     {"type": "object", "enabled": false}
    }
  }
}`

// EnsureIndex creates the submission index when it does not exist yet.
// It reports whether the index was created.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, cfg config.ElasticsearchConfig) (bool, error) {
	exists, err := esapi.IndicesExistsRequest{Index: []string{cfg.Index}}.Do(ctx, c.Client)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", cfg.Index, err)
	}
	exists.Body.Close()
	switch exists.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("check index %s: %s", cfg.Index, exists.Status())
	}

	body := fmt.Sprintf(submissionMapping, cfg.Shards, cfg.Replicas)
	res, err := esapi.IndicesCreateRequest{
		Index: cfg.Index,
		Body:  strings.NewReader(body),
	}.Do(ctx, c.Client)
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", cfg.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		// another replica won the race
		if strings.Contains(string(raw), "resource_already_exists_exception") {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %s: %s", cfg.Index, res.Status(), raw)
	}
	return true, nil
}
