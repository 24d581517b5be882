package voxcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Teek0505/TransMedix/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("voxcribe client not configured")
	ErrUpstream      = errors.New("voxcribe upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type segmentPayload struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

type recognizeResponse struct {
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Segments   []segmentPayload `json:"segments"`
}

// recognize manda el audio crudo y devuelve la transcripción.
// partial=true pide una hipótesis rápida sin diarización.
func (c *Client) recognize(ctx context.Context, audio []byte, locale, mimeType string, partial bool) (recognizeResponse, error) {
	if !c.IsConfigured() {
		return recognizeResponse{}, ErrNotConfigured
	}
	if len(audio) == 0 {
		return recognizeResponse{}, errors.New("empty audio")
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}

	q := url.Values{}
	q.Set("language", locale)
	if partial {
		q.Set("mode", "partial")
	} else {
		q.Set("diarize", "true")
	}
	path := "/v1/recognize?" + q.Encode()

	headers := map[string]string{c.apiKeyHeader: c.apiKey}

	var out recognizeResponse
	err := c.http.DoBytes(ctx, http.MethodPost, path, headers, audio, mimeType, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return recognizeResponse{}, fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
		}
		return recognizeResponse{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return out, nil
}
