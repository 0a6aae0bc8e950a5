// Package index writes submitted surveys to Elasticsearch for territory
// reporting.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ErrIndexFailed = errors.New("INDEX_FAILED")

// Document is one indexed submission.
type Document struct {
	ID          string                 `json:"-"`
	SessionID   string                 `json:"sessionId"`
	FileName    string                 `json:"fileName"`
	SchemaID    string                 `json:"schemaId"`
	DryRun      bool                   `json:"dryRun"`
	Payload     map[string]interface{} `json:"payload"`
	SubmittedAt time.Time              `json:"submittedAt"`
}

// Indexer writes documents into a single index.
type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	return &Indexer{client: client, index: index}
}

func (i *Indexer) Index(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrIndexFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return fmt.Errorf("%w: %s: %s", ErrIndexFailed, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
