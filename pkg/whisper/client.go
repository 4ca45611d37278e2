// Package whisper is a minimal client for the OpenAI audio transcription
// endpoint.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sichef/sichef/internal/resilience"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client transcribes audio files.
type Client interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResponse, error)
}

// TranscribeRequest is one transcription call.
type TranscribeRequest struct {
	Model    string
	Filename string
	Audio    io.Reader
	Language string
}

// TranscribeResponse is the JSON response body.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whisper: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a transcription client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Transcribe(ctx context.Context, tr TranscribeRequest) (*TranscribeResponse, error) {
	if tr.Model == "" {
		return nil, eris.New("whisper: model is required")
	}
	if tr.Audio == nil {
		return nil, eris.New("whisper: audio is required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	name := filepath.Base(tr.Filename)
	if name == "" || name == "." {
		name = "audio.mp3"
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, eris.Wrap(err, "whisper: create form file")
	}
	if _, err := io.Copy(part, tr.Audio); err != nil {
		return nil, eris.Wrap(err, "whisper: copy audio")
	}
	fields := map[string]string{"model": tr.Model, "response_format": "json"}
	if tr.Language != "" {
		fields["language"] = tr.Language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, eris.Wrapf(err, "whisper: write field %s", k)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "whisper: close multipart")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, eris.Wrap(err, "whisper: create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "whisper: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "whisper: read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.FromStatus(&APIError{StatusCode: resp.StatusCode, Body: string(data)}, resp.StatusCode)
	}

	var out TranscribeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "whisper: decode response")
	}
	return &out, nil
}
