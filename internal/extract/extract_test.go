package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"bidcal/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeModel returns canned responses/errors in order.
type fakeModel struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return schema.AssistantMessage(f.responses[i], nil), nil
	}
	return nil, errors.New("no canned response")
}

func (f *fakeModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

const extractionResponse = "```json\n" + `{
  "projectName": "Library Renovation",
  "agency": "City of Springfield",
  "siteAddress": "100 Main St",
  "scope": "Interior renovation",
  "notes": null,
  "bidBond": "5%",
  "bidDueDate": "2025-01-15T17:00:00.000Z",
  "rfiDueDate": "2025-01-10T17:00:00.000Z",
  "siteVisitDate": "TBD",
  "siteVisitMandatory": true,
  "rsvpDeadline": ""
}` + "\n```"

func TestExtractRecord(t *testing.T) {
	m := &fakeModel{responses: []string{extractionResponse}}
	c := NewWithModel(m, testLogger(), 3, time.Millisecond)

	record, err := c.ExtractRecord(context.Background(), "document text", models.DefaultLeadTimes())
	if err != nil {
		t.Fatalf("ExtractRecord returned error: %v", err)
	}

	if record.ProjectName != "Library Renovation" {
		t.Errorf("ProjectName = %q", record.ProjectName)
	}
	if record.BidBond != "5%" {
		t.Errorf("BidBond = %q", record.BidBond)
	}
	if record.BidDueDate != "2025-01-15T17:00:00.000Z" {
		t.Errorf("BidDueDate = %q", record.BidDueDate)
	}
	if record.SiteVisitDate != "" {
		t.Errorf("unparseable site visit date kept: %q", record.SiteVisitDate)
	}
	if !record.SiteVisitMandatory {
		t.Error("SiteVisitMandatory lost")
	}
	// JSON null must land as the empty string, never propagate oddly.
	if record.Notes != "" {
		t.Errorf("Notes = %q, want empty", record.Notes)
	}
	// Derived deadlines are filled in from the anchors.
	if record.BondRequestDeadline != "2025-01-10T17:00:00.000Z" {
		t.Errorf("BondRequestDeadline = %q", record.BondRequestDeadline)
	}
	if record.FinalizeRFIDeadline != "2025-01-09T17:00:00.000Z" {
		t.Errorf("FinalizeRFIDeadline = %q", record.FinalizeRFIDeadline)
	}
}

func TestExtractRecordMalformedJSON(t *testing.T) {
	m := &fakeModel{responses: []string{"sorry, I cannot do that"}}
	c := NewWithModel(m, testLogger(), 3, time.Millisecond)

	if _, err := c.ExtractRecord(context.Background(), "doc", models.DefaultLeadTimes()); err == nil {
		t.Error("ExtractRecord accepted a non-JSON response")
	}
}

func TestGenerateRetriesRetryableErrors(t *testing.T) {
	m := &fakeModel{
		errs:      []error{errors.New("429 too many requests"), nil},
		responses: []string{"", "answer"},
	}
	c := NewWithModel(m, testLogger(), 3, time.Millisecond)

	got, err := c.Chat(context.Background(), "doc", "q")
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if got != "answer" {
		t.Errorf("Chat = %q, want answer", got)
	}
	if m.calls != 2 {
		t.Errorf("model called %d times, want 2", m.calls)
	}
}

func TestGenerateDoesNotRetryFatalErrors(t *testing.T) {
	m := &fakeModel{errs: []error{errors.New("invalid api key")}}
	c := NewWithModel(m, testLogger(), 3, time.Millisecond)

	if _, err := c.Chat(context.Background(), "doc", "q"); err == nil {
		t.Fatal("Chat swallowed a fatal error")
	}
	if m.calls != 1 {
		t.Errorf("model called %d times for a fatal error, want 1", m.calls)
	}
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("503 service unavailable")
	m := &fakeModel{errs: []error{boom, boom, boom}}
	c := NewWithModel(m, testLogger(), 3, time.Millisecond)

	_, err := c.Chat(context.Background(), "doc", "q")
	if !errors.Is(err, boom) {
		t.Errorf("Chat error = %v, want wrapped %v", err, boom)
	}
	if m.calls != 3 {
		t.Errorf("model called %d times, want capped at 3", m.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", errors.New("429 too many requests"), true},
		{"server error", errors.New("upstream returned 502"), true},
		{"timeout text", errors.New("request timeout exceeded"), true},
		{"auth failure", errors.New("invalid api key"), false},
		{"bad request", errors.New("model not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestParsePayloadFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare json", `{"projectName":"P"}`},
		{"fenced", "```json\n{\"projectName\":\"P\"}\n```"},
		{"fenced no language", "```\n{\"projectName\":\"P\"}\n```"},
		{"surrounding whitespace", "\n  {\"projectName\":\"P\"}  \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := parsePayload(tt.raw)
			if err != nil {
				t.Fatalf("parsePayload returned error: %v", err)
			}
			if payload.ProjectName != "P" {
				t.Errorf("ProjectName = %q, want P", payload.ProjectName)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-01-15T17:00:00.000Z", "2025-01-15T17:00:00.000Z"},
		{"2025-01-15T17:00:00Z", "2025-01-15T17:00:00.000Z"},
		{"2025-01-15T12:00:00-05:00", "2025-01-15T17:00:00.000Z"},
		{"", ""},
		{"TBD", ""},
		{"2025-01-15", ""},
	}
	for _, tt := range tests {
		if got := normalizeDate(tt.in); got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
