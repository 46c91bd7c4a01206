// Package modelserver is the HTTP client for the model-serving process
// that hosts exported fine-tuned checkpoints and the pretrained mBART
// translation models.
package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lexicognize/lexicognize/internal/model"
)

var (
	// ErrUnavailable indicates the model server could not be reached.
	ErrUnavailable = errors.New("model server unavailable")
	// ErrModelNotLoaded indicates the server has no such model loaded.
	ErrModelNotLoaded = errors.New("model not loaded on server")
	// ErrBadRequest indicates the server rejected the request payload.
	ErrBadRequest = errors.New("model server rejected request")
)

// MaxBatchSize bounds a single batch generation call.
const MaxBatchSize = 32

// Client talks to the model server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a model server client. The timeout covers the whole
// request; generation on CPU can take a while.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: timeout,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// GenerateRequest asks the server to run one text through a model.
type GenerateRequest struct {
	ModelPath string                 `json:"model_path"`
	Task      string                 `json:"task"`
	Input     string                 `json:"input"`
	Params    model.GenerationParams `json:"parameters"`
}

// GenerateResponse is the server's generation result.
type GenerateResponse struct {
	Output           string  `json:"output"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
}

// Generate runs a single generation request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.post(ctx, "/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchGenerateRequest runs several inputs through one model.
type BatchGenerateRequest struct {
	ModelPath string                 `json:"model_path"`
	Task      string                 `json:"task"`
	Inputs    []string               `json:"inputs"`
	Params    model.GenerationParams `json:"parameters"`
}

// BatchGenerateResponse carries one output per input, in order.
type BatchGenerateResponse struct {
	Outputs          []string `json:"outputs"`
	ProcessingTimeMS float64  `json:"processing_time_ms"`
}

// BatchGenerate runs a batch generation request.
func (c *Client) BatchGenerate(ctx context.Context, req BatchGenerateRequest) (*BatchGenerateResponse, error) {
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrBadRequest)
	}
	if len(req.Inputs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch size %d exceeds %d", ErrBadRequest, len(req.Inputs), MaxBatchSize)
	}

	var resp BatchGenerateResponse
	if err := c.post(ctx, "/generate/batch", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Outputs) != len(req.Inputs) {
		return nil, fmt.Errorf("model server returned %d outputs for %d inputs", len(resp.Outputs), len(req.Inputs))
	}
	return &resp, nil
}

// TranslateRequest asks the mBART translation route for one text.
type TranslateRequest struct {
	Texts      []string `json:"texts"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

// TranslateResponse carries translations in input order.
type TranslateResponse struct {
	Translations     []string `json:"translations"`
	ProcessingTimeMS float64  `json:"processing_time_ms"`
}

// Translate runs texts through the pretrained translation route.
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if len(req.Texts) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrBadRequest)
	}
	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch size %d exceeds %d", ErrBadRequest, len(req.Texts), MaxBatchSize)
	}

	var resp TranslateResponse
	if err := c.post(ctx, "/translate", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Translations) != len(req.Texts) {
		return nil, fmt.Errorf("model server returned %d translations for %d texts", len(resp.Translations), len(req.Texts))
	}
	return &resp, nil
}

// Health pings the model server.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

type serverError struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return ErrModelNotLoaded
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var se serverError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &se) == nil && se.Error != "" {
			return fmt.Errorf("%w: %s", ErrBadRequest, se.Error)
		}
		return fmt.Errorf("%w: status %d", ErrBadRequest, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
