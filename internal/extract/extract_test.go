package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/resilience"
)

type stubMessenger struct {
	reply    string
	err      error
	lastUser string
}

func (s *stubMessenger) complete(_ context.Context, _, user string) (string, error) {
	s.lastUser = user
	return s.reply, s.err
}

const oracleReply = `[
  {
    "field": "declared_power_kwp",
    "value": 100,
    "unit": "kWp",
    "confidence": 0.95,
    "evidence": [{"page_no": 1, "snippet": "Moc instalacji: 100 kWp"}]
  },
  {
    "field": "project_location_text",
    "value": "Warszawa, Polska",
    "confidence": 0.9,
    "evidence": [{"page_no": 2, "snippet": "Lokalizacja: Warszawa"}]
  }
]`

func TestExtract(t *testing.T) {
	stub := &stubMessenger{reply: oracleReply}
	e := &Extractor{client: stub}

	facts, err := e.Extract(context.Background(), []string{"page one text", "page two text"})
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, model.FieldDeclaredPower, facts[0].Field)
	power, ok := facts[0].Value.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 100.0, power)
	assert.Equal(t, "kWp", facts[0].Unit)
	assert.Equal(t, 0.95, facts[0].Confidence)
	require.Len(t, facts[0].Evidence, 1)
	assert.Equal(t, 1, facts[0].Evidence[0].PageNo)

	loc, ok := facts[1].Value.AsText()
	require.True(t, ok)
	assert.Equal(t, "Warszawa, Polska", loc)
}

func TestExtract_PromptContainsPagesAndFields(t *testing.T) {
	stub := &stubMessenger{reply: "[]"}
	e := &Extractor{client: stub}

	_, err := e.Extract(context.Background(), []string{"first page", "second page"})
	require.NoError(t, err)

	assert.Contains(t, stub.lastUser, "--- PAGE 1 ---")
	assert.Contains(t, stub.lastUser, "--- PAGE 2 ---")
	assert.Contains(t, stub.lastUser, "first page")
	for _, f := range model.KnownFields {
		assert.Contains(t, stub.lastUser, f.Name)
	}
}

func TestExtract_EmptyDocumentSkipsCall(t *testing.T) {
	stub := &stubMessenger{err: errors.New("should not be called")}
	e := &Extractor{client: stub}

	facts, err := e.Extract(context.Background(), []string{"", "   \n"})
	require.NoError(t, err)
	assert.Empty(t, facts)
	assert.Empty(t, stub.lastUser)
}

func TestExtract_OracleError(t *testing.T) {
	stub := &stubMessenger{err: errors.New("api down")}
	e := &Extractor{client: stub}

	_, err := e.Extract(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle call")
}

type flakyMessenger struct {
	failures int
	calls    int
	reply    string
}

func (f *flakyMessenger) complete(context.Context, string, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", resilience.NewTransientError(errors.New("overloaded"), 529)
	}
	return f.reply, nil
}

func TestExtract_RetriesTransientErrors(t *testing.T) {
	flaky := &flakyMessenger{failures: 2, reply: "[]"}
	e := &Extractor{
		client: flaky,
		retry:  resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	}

	_, err := e.Extract(context.Background(), []string{"text"})
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestExtract_NoRetryOnPermanentError(t *testing.T) {
	stub := &stubMessenger{err: errors.New("invalid api key")}
	e := &Extractor{
		client: stub,
		retry:  resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	}

	_, err := e.Extract(context.Background(), []string{"text"})
	require.Error(t, err)
}

func TestParseFacts_FencedBlock(t *testing.T) {
	raw := "Here are the results:\n```json\n" + oracleReply + "\n```\nDone."
	facts, err := ParseFacts(raw)
	require.NoError(t, err)
	assert.Len(t, facts, 2)
}

func TestParseFacts_BareFence(t *testing.T) {
	raw := "```\n[]\n```"
	facts, err := ParseFacts(raw)
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestParseFacts_InvalidJSON(t *testing.T) {
	_, err := ParseFacts("the document mentions 100 kWp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse oracle response")
}

func TestParseFacts_Sanitizes(t *testing.T) {
	raw := `[
	  {"field": "declared_power_kwp", "value": 50, "confidence": 1.7,
	   "evidence": [{"page_no": 0, "snippet": "bad"}, {"page_no": 3, "snippet": "good"}]},
	  {"field": "roof_area_m2", "value": 400, "confidence": -0.2},
	  {"field": "", "value": 1, "confidence": 0.5},
	  {"field": "battery_capacity_kwh", "value": 10, "confidence": 0.8}
	]`
	facts, err := ParseFacts(raw)
	require.NoError(t, err)
	require.Len(t, facts, 3)

	assert.Equal(t, 1.0, facts[0].Confidence)
	require.Len(t, facts[0].Evidence, 1)
	assert.Equal(t, 3, facts[0].Evidence[0].PageNo)

	assert.Equal(t, 0.0, facts[1].Confidence)

	// Unknown field names survive sanitization.
	assert.Equal(t, "battery_capacity_kwh", facts[2].Field)
}

func TestJoinPages_Bounded(t *testing.T) {
	long := strings.Repeat("x", maxPromptChars)
	doc := joinPages([]string{long, "tail page"})
	assert.Len(t, doc, maxPromptChars)
	assert.NotContains(t, doc, "tail page")
}
