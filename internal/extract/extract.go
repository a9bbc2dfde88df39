// Package extract calls the fact-extraction oracle: an LLM that reads the
// anonymized document text and returns candidate facts with page-anchored
// evidence. Its output is untrusted input and sanitized on the way in.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/resilience"
)

// maxPromptChars bounds the document text sent to the model.
const maxPromptChars = 30000

// Oracle extracts candidate facts from document pages.
type Oracle interface {
	Extract(ctx context.Context, pages []string) ([]model.Fact, error)
}

// messenger is the slice of the Anthropic API the extractor needs; tests
// stub it.
type messenger interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// Extractor is an Anthropic-backed Oracle.
type Extractor struct {
	client messenger
	retry  resilience.RetryConfig
}

// New creates an Extractor against the Anthropic Messages API.
func New(apiKey, modelID string, maxTokens int64) *Extractor {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract")
	return &Extractor{
		client: &sdkMessenger{client: sdk.NewClient(option.WithAPIKey(apiKey)), model: modelID, maxTokens: maxTokens},
		retry:  retry,
	}
}

const systemPrompt = `You are a document analyst for solar PV loan applications. ` +
	`You extract facts only when the document contains explicit evidence, and you quote that evidence exactly.`

const promptTemplate = `Analyze this PV project document and extract the facts below.

DOCUMENT:
%s

FIELDS TO EXTRACT:
%s

For every field you find, return a JSON object with:
- field: the field name from the list
- value: the value (number or text)
- unit: the unit (kWp, m2, etc.) if any
- confidence: 0.0-1.0
- evidence: [{"page_no": page number, "snippet": "exact quote from the document"}]

RULES:
- Extract ONLY when you find explicit evidence in the text
- The snippet must be an EXACT quote
- Return [] if nothing was found

Return ONLY a valid JSON array, no explanations.`

// Extract implements Oracle.
func (e *Extractor) Extract(ctx context.Context, pages []string) ([]model.Fact, error) {
	doc := joinPages(pages)
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(promptTemplate, doc, fieldList())
	raw, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (string, error) {
		return e.client.complete(ctx, systemPrompt, prompt)
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: oracle call")
	}

	facts, err := ParseFacts(raw)
	if err != nil {
		return nil, err
	}
	zap.L().Info("extract: facts extracted",
		zap.Int("pages", len(pages)),
		zap.Int("facts", len(facts)),
	)
	return facts, nil
}

// ParseFacts parses the oracle's JSON array, tolerating fenced code blocks,
// and sanitizes each entry: confidence clamped to [0,1], evidence with
// non-positive pages dropped, entries without a field name dropped. Unknown
// field names are preserved.
func ParseFacts(raw string) ([]model.Fact, error) {
	raw = stripFences(raw)

	var parsed []model.Fact
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, eris.Wrap(err, "extract: parse oracle response")
	}

	facts := parsed[:0]
	for _, f := range parsed {
		if strings.TrimSpace(f.Field) == "" {
			continue
		}
		if f.Confidence < 0 {
			f.Confidence = 0
		}
		if f.Confidence > 1 {
			f.Confidence = 1
		}
		evidence := f.Evidence[:0]
		for _, ev := range f.Evidence {
			if ev.PageNo >= 1 {
				evidence = append(evidence, ev)
			}
		}
		f.Evidence = evidence
		facts = append(facts, f)
	}
	return facts, nil
}

// stripFences removes a markdown code fence around the JSON, if any.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		raw = raw[idx+len("```json"):]
	} else if idx := strings.Index(raw, "```"); idx >= 0 {
		raw = raw[idx+len("```"):]
	} else {
		return raw
	}
	if end := strings.Index(raw, "```"); end >= 0 {
		raw = raw[:end]
	}
	return strings.TrimSpace(raw)
}

// joinPages labels and concatenates page texts, bounded to maxPromptChars.
func joinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		fmt.Fprintf(&b, "--- PAGE %d ---\n%s\n\n", i+1, p)
	}
	doc := b.String()
	if len(doc) > maxPromptChars {
		doc = doc[:maxPromptChars]
	}
	return doc
}

// fieldList renders the extraction vocabulary for the prompt.
func fieldList() string {
	var b strings.Builder
	for _, f := range model.KnownFields {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Description)
	}
	return b.String()
}

// sdkMessenger implements messenger with the official SDK.
type sdkMessenger struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

func (m *sdkMessenger) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := m.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(m.model),
		MaxTokens: m.maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(user))},
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		b.WriteString(block.Text)
	}
	return b.String(), nil
}
