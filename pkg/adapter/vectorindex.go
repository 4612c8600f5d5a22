package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// VectorPayload is the metadata stored alongside each memory vector. UserID
// is mandatory: every search is hard-filtered by it.
type VectorPayload struct {
	UserID      string  `json:"userId"`
	Type        string  `json:"type"`
	Text        string  `json:"text,omitempty"`
	Topic       string  `json:"topic,omitempty"`
	Score       float64 `json:"score,omitempty"`
	InterviewID string  `json:"interviewId,omitempty"`
	AvgScore    float64 `json:"avgScore,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// VectorPoint is one upserted point. Vectors are opaque to the index.
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload VectorPayload
}

// VectorMatch is one nearest-neighbor search hit
type VectorMatch struct {
	Score   float64
	Payload VectorPayload
}

// VectorIndex owns the similarity-search collection for memory records
type VectorIndex interface {
	// EnsureCollection creates the collection if it does not exist
	EnsureCollection(ctx context.Context) error
	// Upsert writes one point
	Upsert(ctx context.Context, point *VectorPoint) error
	// Search returns up to limit nearest neighbors owned by userID
	Search(ctx context.Context, vector []float32, userID string, limit int) ([]*VectorMatch, error)
}

// NewPointID derives a globally unique point ID, stable under concurrent
// writes for the same user and type.
func NewPointID(userID string, memoryType string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%d_%s", userID, memoryType, time.Now().UnixMilli(), suffix)
}

type qdrantClient struct {
	baseURL    string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type QdrantOption func(*qdrantClient)

func WithQdrantTimeout(d time.Duration) QdrantOption {
	return func(c *qdrantClient) {
		c.client.Timeout = d
	}
}

// NewQdrant creates a Qdrant REST client for the given collection
func NewQdrant(baseURL, apiKey, collection string, dimension int, opts ...QdrantOption) VectorIndex {
	c := &qdrantClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *qdrantClient) EnsureCollection(ctx context.Context) error {
	if c.dimension <= 0 {
		return goerr.New("invalid vector dimension", goerr.Value("dimension", c.dimension))
	}

	status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", c.collection), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     c.dimension,
			"distance": "Cosine",
		},
	}
	status, err = c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", c.collection), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return goerr.New("failed to create collection", goerr.Value("status", status))
	}
	return nil
}

func (c *qdrantClient) Upsert(ctx context.Context, point *VectorPoint) error {
	if point.Payload.UserID == "" {
		return goerr.New("point payload requires userId")
	}
	if len(point.Vector) != c.dimension {
		return goerr.New("vector dimension mismatch",
			goerr.Value("got", len(point.Vector)), goerr.Value("want", c.dimension))
	}

	body := map[string]any{
		"points": []map[string]any{
			{
				"id":      point.ID,
				"vector":  point.Vector,
				"payload": point.Payload,
			},
		},
	}
	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	status, err := c.do(ctx, http.MethodPut, path, body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return goerr.New("failed to upsert point", goerr.Value("status", status), goerr.Value("id", point.ID))
	}
	return nil
}

func (c *qdrantClient) Search(ctx context.Context, vector []float32, userID string, limit int) ([]*VectorMatch, error) {
	if userID == "" {
		return nil, goerr.New("search requires userID")
	}
	if limit <= 0 {
		limit = 5
	}

	body := map[string]any{
		"vector": vector,
		"limit":  limit,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "userId", "match": map[string]any{"value": userID}},
			},
		},
		"with_payload": true,
	}

	var out struct {
		Result []struct {
			Score   float64       `json:"score"`
			Payload VectorPayload `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	status, err := c.do(ctx, http.MethodPost, path, body, &out)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, goerr.New("search failed", goerr.Value("status", status))
	}

	matches := make([]*VectorMatch, 0, len(out.Result))
	for _, r := range out.Result {
		// The filter already scopes results; drop anything foreign anyway
		if r.Payload.UserID != userID {
			continue
		}
		matches = append(matches, &VectorMatch{Score: r.Score, Payload: r.Payload})
	}
	return matches, nil
}

func (c *qdrantClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to marshal request")
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to call vector index", goerr.Value("path", path))
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, goerr.Wrap(err, "failed to decode vector index response")
		}
	}
	return resp.StatusCode, nil
}
