// Package engine is the boundary to the black-box neural synthesis sidecar.
// The sidecar exposes POST /synthesize and returns a WAV payload; failures
// come back as structured JSON with an error kind.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/wavio"
)

// #region types

// Request carries one synthesis call.
type Request struct {
	ReferenceAudio string
	Text           string
	Params         Params
}

// Result is a decoded synthesized clip.
type Result struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (r Result) Duration() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate)
}

// Synthesizer is the injectable synthesis boundary. The pipeline and the
// retry loop depend on this, never on the concrete client, so tests run
// against fakes.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Result, error)
}

// #endregion types

// #region client

const synthesizePath = "/synthesize"

type synthesizeBody struct {
	ReferenceAudio string  `json:"reference_audio"`
	Text           string  `json:"text"`
	NFEStep        int     `json:"nfe_step"`
	Sway           float64 `json:"sway_sampling_coef"`
	CFGStrength    float64 `json:"cfg_strength"`
	Speed          float64 `json:"speed"`
	Seed           int64   `json:"seed"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Client talks to the synthesis sidecar over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the sidecar at baseURL. Synthesis of a long
// sentence can take minutes on CPU, hence the generous timeout.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: 5 * time.Minute})
}

// NewClientWithHTTP injects the HTTP client. Used for testing.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

var _ Synthesizer = (*Client)(nil)

// #endregion client

// #region synthesize

// Synthesize posts one request and decodes the WAV response. Non-2xx
// responses become *Error values with a classified kind.
func (c *Client) Synthesize(ctx context.Context, req Request) (Result, error) {
	payload, err := json.Marshal(synthesizeBody{
		ReferenceAudio: req.ReferenceAudio,
		Text:           req.Text,
		NFEStep:        req.Params.NFEStep,
		Sway:           req.Params.Sway,
		CFGStrength:    req.Params.CFG,
		Speed:          req.Params.Speed,
		Seed:           req.Params.Seed,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal synthesize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+synthesizePath, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build synthesize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read synthesize response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		if eb.Error == "" {
			eb.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return Result{}, &Error{Kind: ClassifyKind(eb.Kind, eb.Error), Message: eb.Error}
	}

	samples, sampleRate, err := wavio.DecodeBytes(body)
	if err != nil {
		return Result{}, &Error{Kind: KindTransient, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(samples) == 0 {
		return Result{}, &Error{Kind: KindEmptyAudio, Message: "engine returned no samples"}
	}
	return Result{Samples: samples, SampleRate: sampleRate}, nil
}

// #endregion synthesize
