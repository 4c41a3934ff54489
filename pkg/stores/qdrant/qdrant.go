/*
Package qdrant is a minimal HTTP client for the qdrant vector database,
used as the metaphor corpus index. Points carry the metaphor text plus its
cultural provenance and modality as payload so search can filter on the
user's culture tags.
*/
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client wraps an endpoint + collection.
type Client struct {
	Endpoint   string // e.g. http://localhost:6333
	Collection string // e.g. "metaphors"
	httpClient *http.Client
}

// New returns a Client with sane defaults.
func New(endpoint, collection string) *Client {
	return &Client{
		Endpoint:   endpoint,
		Collection: collection,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Put upserts a batch of documents as points. The caller supplies the
// embedding; this client never computes vectors itself.
func (client *Client) Put(ctx context.Context, docs []Document) error {
	var points []map[string]any

	for _, d := range docs {
		points = append(points, map[string]any{
			"id": d.ID,
			"payload": map[string]any{
				"text":     d.Text,
				"culture":  d.Culture,
				"modality": d.Modality,
				"concept":  d.Concept,
			},
			"vector": d.Embedding,
		})
	}

	body := map[string]any{"points": points}
	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points", client.Endpoint, client.Collection),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return err
	}

	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: unexpected status %s", resp.Status)
	}

	return nil
}

// Search performs a vector search, optionally filtered to the supplied
// culture tags. Results come back ordered by similarity score descending.
func (client *Client) Search(
	ctx context.Context, queryVec []float32, cultures []string, limit int,
) ([]Document, error) {
	body := map[string]any{
		"vector":       queryVec,
		"limit":        limit,
		"with_payload": true,
	}

	if len(cultures) > 0 {
		body["filter"] = map[string]any{
			"should": []map[string]any{
				{"key": "culture", "match": map[string]any{"any": cultures}},
			},
		}
	}

	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/search", client.Endpoint, client.Collection),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant: search status %s", resp.Status)
	}

	var out struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(out.Result))

	for _, r := range out.Result {
		docs = append(docs, Document{
			ID:       r.ID,
			Text:     asString(r.Payload["text"]),
			Culture:  asString(r.Payload["culture"]),
			Modality: asString(r.Payload["modality"]),
			Concept:  asString(r.Payload["concept"]),
			Score:    r.Score,
		})
	}

	return docs, nil
}

// Ping checks the collection exists and the endpoint is reachable.
func (client *Client) Ping(ctx context.Context) error {
	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/collections/%s", client.Endpoint, client.Collection),
		nil,
	)

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return err
	}

	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: ping status %s", resp.Status)
	}

	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
