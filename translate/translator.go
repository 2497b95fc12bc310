// Package translate turns natural-language query text into SQL by calling
// an OpenAI-compatible chat completions endpoint. Works against Ollama,
// LocalAI, or any hosted service speaking the same protocol.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
	"github.com/vandanapadala-pg/hotcommands/internal/httpclient"
)

const systemPrompt = `You are a SQL generator. Convert the user's request into a single SQLite SELECT statement.
Rules:
- Output only the SQL statement, no explanation and no markdown.
- Never generate statements that modify data or schema.
- When a schema description is provided, use only tables and columns it names.`

// Config configures a Translator.
type Config struct {
	// BaseURL of the inference server, e.g. http://localhost:11434.
	BaseURL string
	// Model name passed through to the endpoint.
	Model string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	// Timeout per translation request.
	Timeout time.Duration
	// RequestsPerMinute throttles calls to the endpoint. 0 means no limit.
	RequestsPerMinute int
	// AllowPrivate permits loopback/private endpoints (local inference).
	AllowPrivate bool
}

// Translator implements the router's Translator interface.
type Translator struct {
	cfg     Config
	client  *httpclient.SaferClient
	limiter *rate.Limiter
}

// New creates a Translator. The base URL is validated eagerly so a
// misconfigured endpoint fails at startup, not on first invocation.
func New(cfg Config) (*Translator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := httpclient.New(cfg.Timeout, httpclient.Options{AllowPrivate: cfg.AllowPrivate})
	if _, err := client.ValidateURL(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "translator endpoint")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}
	return &Translator{cfg: cfg, client: client, limiter: limiter}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate converts text to SQL. schemaContext, when non-empty, is handed
// to the model as a description of the queryable schema. The returned SQL is
// not trusted here; the router re-validates it.
func (t *Translator) Translate(ctx context.Context, text, schemaContext string) (string, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	prompt := text
	if schemaContext != "" {
		prompt = "Schema: " + schemaContext + "\n\nRequest: " + text
	}
	body, err := json.Marshal(chatRequest{
		Model: t.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:      false,
		Temperature: 0,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal translation request")
	}

	endpoint := strings.TrimRight(t.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build translation request")
	}
	req.Header.Set("Content-Type", "application/json")
	if t.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.WithSecondaryError(errors.Wrap(types.ErrTranslation, "translation request failed"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.Wrapf(types.ErrTranslation,
			"inference endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", errors.WithSecondaryError(errors.Wrap(types.ErrTranslation, "decode translation response"), err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.Wrap(types.ErrTranslation, "no completion choices returned")
	}

	sqlText := StripFences(completion.Choices[0].Message.Content)
	if sqlText == "" {
		return "", errors.Wrap(types.ErrTranslation, "empty translation")
	}
	return sqlText, nil
}

// StripFences removes a surrounding markdown code fence and trims
// whitespace. Models wrap SQL in fences no matter how firmly told not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return strings.TrimSuffix(s, ";")
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line (```sql)
		if lang := strings.TrimSpace(s[:i]); lang == "" || isAlphaOnly(lang) {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}

func isAlphaOnly(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
