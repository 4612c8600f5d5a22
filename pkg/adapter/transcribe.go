package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Transcriber converts spoken answer audio to text. Transcription failures
// propagate as submission errors.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type deepgramClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type TranscriberOption func(*deepgramClient)

func WithTranscriberBaseURL(url string) TranscriberOption {
	return func(c *deepgramClient) {
		c.baseURL = url
	}
}

func WithTranscriberTimeout(d time.Duration) TranscriberOption {
	return func(c *deepgramClient) {
		c.client.Timeout = d
	}
}

// NewDeepgram creates a Deepgram transcription client
func NewDeepgram(apiKey string, opts ...TranscriberOption) Transcriber {
	c := &deepgramClient{
		baseURL: "https://api.deepgram.com",
		apiKey:  apiKey,
		model:   "nova-2",
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *deepgramClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", goerr.New("empty audio payload")
	}

	url := c.baseURL + "/v1/listen?model=" + c.model + "&smart_format=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build transcription request")
	}
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call transcription service")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", goerr.New("transcription service error", goerr.Value("status", resp.Status))
	}

	var out struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", goerr.Wrap(err, "failed to decode transcription response")
	}

	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return "", goerr.New("no transcription returned")
	}

	text := out.Results.Channels[0].Alternatives[0].Transcript
	if text == "" {
		return "", goerr.New("empty transcript")
	}

	return text, nil
}
