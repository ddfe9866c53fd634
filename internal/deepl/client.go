// Package deepl is a small client for the DeepL translate endpoint.
package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/domain"
	"github.com/pricofy/slack-translator/internal/markup"
)

const (
	// FreeEndpoint serves keys of the free plan.
	FreeEndpoint = "https://api-free.deepl.com/v2/translate"
	// ProEndpoint serves every other key.
	ProEndpoint = "https://api.deepl.com/v2/translate"

	freeKeySuffix = ":fx"
	serviceName   = "deepl"
)

// EndpointFor returns the translate endpoint for an auth key. Free plan keys
// end in ":fx".
func EndpointFor(authKey string) string {
	if strings.HasSuffix(authKey, freeKeySuffix) {
		return FreeEndpoint
	}
	return ProEndpoint
}

// Request is one translation call. Text is in the escaped markup form.
type Request struct {
	Text       string
	TargetLang string
	AuthKey    string
}

// Client translates text through the DeepL API. It never retries.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint overrides the key-selected endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSpace(endpoint) }
}

// WithLogger sets the logger for request debugging.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Translate sends one text to DeepL.
//
// A 403 is returned as *domain.AuthenticationError. Any other non-200
// status, and a 200 without translations, is a *domain.UpstreamError.
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	targetLang := strings.ToUpper(strings.TrimSpace(req.TargetLang))
	if targetLang == "" {
		return "", fmt.Errorf("target language is required")
	}

	form := url.Values{}
	form.Set("text", req.Text)
	form.Set("target_lang", targetLang)
	form.Set("tag_handling", markup.TagHandling)
	form.Set("ignore_tags", strings.Join(markup.IgnoredTags(), ","))

	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = EndpointFor(req.AuthKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build translation request: %w", err)
	}
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+req.AuthKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send translation request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read translation response: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Str("target_lang", targetLang).
		RawJSON("body", jsonOrString(respBody)).
		Msg("deepl response")

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return "", &domain.AuthenticationError{Service: serviceName, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return "", &domain.UpstreamError{Service: serviceName, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var parsed translateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Translations) == 0 {
		return "", &domain.UpstreamError{Service: serviceName, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var b strings.Builder
	for _, t := range parsed.Translations {
		b.WriteString(t.Text)
	}
	return b.String(), nil
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// jsonOrString keeps the debug log valid JSON for non-JSON bodies.
func jsonOrString(body []byte) []byte {
	if json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
