package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/model"
)

// AnalysisScores are the per-answer paralinguistic signals
type AnalysisScores struct {
	VoiceTone    float64 `json:"voice_tone_score"`
	BodyLanguage float64 `json:"body_language_score"`
}

// Analysis is the paralinguistic analysis service. All operations are
// best-effort for callers: the evaluation worker falls back to default
// scores when a call fails.
type Analysis interface {
	StartSession(ctx context.Context, sessionID model.InterviewID) error
	StopSession(ctx context.Context, sessionID model.InterviewID) (*model.SessionAnalysis, error)
	AnalyzeTranscript(ctx context.Context, sessionID model.InterviewID, transcript string, questionID model.QuestionID) (*AnalysisScores, error)
}

type analysisClient struct {
	baseURL string
	client  *http.Client
}

type AnalysisOption func(*analysisClient)

func WithAnalysisTimeout(d time.Duration) AnalysisOption {
	return func(c *analysisClient) {
		c.client.Timeout = d
	}
}

// NewAnalysis creates a client for the analysis service
func NewAnalysis(baseURL string, opts ...AnalysisOption) Analysis {
	c := &analysisClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *analysisClient) StartSession(ctx context.Context, sessionID model.InterviewID) error {
	return c.post(ctx, "/api/session/start", map[string]any{"sessionId": sessionID}, nil)
}

func (c *analysisClient) StopSession(ctx context.Context, sessionID model.InterviewID) (*model.SessionAnalysis, error) {
	var out struct {
		Results *model.SessionAnalysis `json:"results"`
	}
	if err := c.post(ctx, "/api/session/stop", map[string]any{"sessionId": sessionID}, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		return nil, goerr.New("no session analysis returned")
	}
	return out.Results, nil
}

func (c *analysisClient) AnalyzeTranscript(ctx context.Context, sessionID model.InterviewID, transcript string, questionID model.QuestionID) (*AnalysisScores, error) {
	body := map[string]any{
		"sessionId":  sessionID,
		"transcript": transcript,
		"questionId": questionID,
	}
	var out AnalysisScores
	if err := c.post(ctx, "/api/analyze/transcript", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *analysisClient) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal analysis request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return goerr.Wrap(err, "failed to build analysis request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call analysis service", goerr.Value("path", path))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return goerr.New("analysis service error", goerr.Value("path", path), goerr.Value("status", resp.Status))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return goerr.Wrap(err, "failed to decode analysis response")
		}
	}
	return nil
}
