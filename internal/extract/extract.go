// Package extract wraps the hosted LLM used for pulling bid deadlines out of
// document text and for the document chat. The core only consumes its output,
// a loosely-typed record of extracted fields; bad or missing dates degrade to
// absent fields, never to errors.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"bidcal/internal/models"
	"bidcal/internal/schedule"
)

// Content sent to the model is capped so very large documents do not blow the
// context window; deadline tables live near the front of bid packets anyway.
const maxDocumentChars = 12000

const extractPrompt = `You are a construction bid assistant. Read the procurement document below and extract the bid schedule fields.

Respond with ONLY a JSON object, no prose, using exactly these keys:
{
  "projectName": string,
  "agency": string,
  "siteAddress": string,
  "scope": string,
  "notes": string,
  "bidBond": string,
  "bidDueDate": string,
  "rfiDueDate": string,
  "siteVisitDate": string,
  "siteVisitMandatory": boolean,
  "rsvpDeadline": string
}

Dates must be ISO-8601 UTC instants (e.g. "2025-01-15T17:00:00.000Z"). Use "" for any field the document does not state. bidBond is the bond requirement exactly as written (e.g. "5%%" or "$10,000").

Document:
%s`

const chatPrompt = `You are a construction bid assistant. Answer the question using only the document below. If the document does not contain the answer, say so.

Document:
%s

Question: %s`

// Config holds the model endpoint and retry policy.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string        // optional, empty means the provider default
	MaxAttempts int           // capped retry attempts, default 3
	BaseDelay   time.Duration // first backoff step, default 1s
}

// Client calls the chat model with exponential backoff on retryable failures.
type Client struct {
	model       model.ToolCallingChatModel
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// New builds a Client backed by an OpenAI-compatible chat model.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("extraction API key is not set")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("extraction model name is not set")
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewWithModel(chatModel, logger, cfg.MaxAttempts, cfg.BaseDelay), nil
}

// NewWithModel wires an already-constructed chat model. Tests use this with a
// fake model.
func NewWithModel(m model.ToolCallingChatModel, logger *slog.Logger, maxAttempts int, baseDelay time.Duration) *Client {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Client{model: m, logger: logger, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// extractionPayload is the loosely-typed record the model returns. JSON null
// and missing keys both decode to the zero value, which is already the
// record's absence signal.
type extractionPayload struct {
	ProjectName        string `json:"projectName"`
	Agency             string `json:"agency"`
	SiteAddress        string `json:"siteAddress"`
	Scope              string `json:"scope"`
	Notes              string `json:"notes"`
	BidBond            string `json:"bidBond"`
	BidDueDate         string `json:"bidDueDate"`
	RFIDueDate         string `json:"rfiDueDate"`
	SiteVisitDate      string `json:"siteVisitDate"`
	SiteVisitMandatory bool   `json:"siteVisitMandatory"`
	RSVPDeadline       string `json:"rsvpDeadline"`
}

// ExtractRecord runs the extraction prompt against the document and returns a
// record with anchors normalized and all internal deadlines derived.
func (c *Client) ExtractRecord(ctx context.Context, documentText string, leadTimes models.LeadTimeSettings) (models.ProjectRecord, error) {
	content := documentText
	if len(content) > maxDocumentChars {
		content = content[:maxDocumentChars]
	}

	raw, err := c.generate(ctx, fmt.Sprintf(extractPrompt, content))
	if err != nil {
		return models.ProjectRecord{}, fmt.Errorf("extraction call failed: %w", err)
	}

	payload, err := parsePayload(raw)
	if err != nil {
		return models.ProjectRecord{}, err
	}

	record := models.ProjectRecord{
		ProjectName:        strings.TrimSpace(payload.ProjectName),
		Agency:             strings.TrimSpace(payload.Agency),
		SiteAddress:        strings.TrimSpace(payload.SiteAddress),
		Scope:              strings.TrimSpace(payload.Scope),
		Notes:              strings.TrimSpace(payload.Notes),
		BidBond:            strings.TrimSpace(payload.BidBond),
		BidDueDate:         normalizeDate(payload.BidDueDate),
		RFIDueDate:         normalizeDate(payload.RFIDueDate),
		SiteVisitDate:      normalizeDate(payload.SiteVisitDate),
		SiteVisitMandatory: payload.SiteVisitMandatory,
		RSVPDeadline:       normalizeDate(payload.RSVPDeadline),
	}
	return schedule.DeriveAll(record, leadTimes), nil
}

// Chat answers a single question grounded on the document text.
func (c *Client) Chat(ctx context.Context, documentText, question string) (string, error) {
	content := documentText
	if len(content) > maxDocumentChars {
		content = content[:maxDocumentChars]
	}
	answer, err := c.generate(ctx, fmt.Sprintf(chatPrompt, content, question))
	if err != nil {
		return "", fmt.Errorf("chat call failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// generate calls the model with exponential backoff. Only errors classified
// retryable are retried; context cancellation stops immediately.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			c.logger.Warn("retrying model call", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
		if err == nil {
			return resp.Content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("model call failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// isRetryable classifies transient transport and rate-limit failures.
func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "timeout", "temporarily unavailable",
		"connection reset", "connection refused",
		"500", "502", "503", "504",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// parsePayload strips markdown code fences the model sometimes wraps around
// its JSON, then unmarshals.
func parsePayload(raw string) (extractionPayload, error) {
	jsonStr := strings.TrimSpace(raw)
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")
	jsonStr = strings.TrimSpace(jsonStr)

	var payload extractionPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return extractionPayload{}, fmt.Errorf("model returned malformed JSON: %w", err)
	}
	return payload, nil
}

// normalizeDate re-encodes a model-supplied date in canonical form, or drops
// it to "" when it is not a valid instant. Absence is not an error.
func normalizeDate(value string) string {
	t, ok := schedule.ParseInstant(value)
	if !ok {
		return ""
	}
	return schedule.FormatInstant(t)
}
