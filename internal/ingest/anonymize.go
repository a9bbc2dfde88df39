package ingest

import "regexp"

// PII patterns scrubbed before document text is sent to any external API.
// Polish identifiers first (these documents are mostly Polish loan files),
// then universal ones. City names survive so geocoding still works.
var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	ibanPattern  = regexp.MustCompile(`\b[A-Z]{2}\d{2}\s?(?:\d{4}\s?){4,6}\d{0,4}\b`)
	peselPattern = regexp.MustCompile(`\b\d{11}\b`)
	nipPattern   = regexp.MustCompile(`\b\d{10}\b`)
	regonPattern = regexp.MustCompile(`\b\d{9}\b`)
	phonePattern = regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?\(?\d{2,3}\)?[-.\s]?\d{3}[-.\s]?\d{3,4}\b`)

	postalPLPattern   = regexp.MustCompile(`\b\d{2}-\d{3}\b`)
	postalIntlPattern = regexp.MustCompile(`\b[A-Z]{1,2}\d{1,2}\s?\d[A-Z]{2}\b`)

	// "Jan Kowalski" / "KOWALSKI JAN" style person names.
	namePattern = regexp.MustCompile(`\b(?:[A-ZĄĆĘŁŃÓŚŹŻ][a-ząćęłńóśźż]+\s+[A-ZĄĆĘŁŃÓŚŹŻ][a-ząćęłńóśźż]+|[A-ZĄĆĘŁŃÓŚŹŻ]{2,}\s+[A-ZĄĆĘŁŃÓŚŹŻ]{2,})\b`)

	// Street-level addresses; the city part stays.
	streetPattern = regexp.MustCompile(`(?i)\b(?:(?:ul\.|al\.|pl\.|os\.)\s*[A-ZĄĆĘŁŃÓŚŹŻa-ząćęłńóśźż\s]+\s+\d+[a-zA-Z]?(?:/\d+)?|\d+\s+[A-Za-z]+\s+(?:Street|St\.?|Avenue|Ave\.?|Road|Rd\.?|Drive|Dr\.?|Lane|Ln\.?|Boulevard|Blvd\.?))\b`)
)

// replacements are applied most specific first so broader patterns do not
// swallow the narrower matches.
var replacements = []struct {
	pattern *regexp.Regexp
	token   string
}{
	{emailPattern, "[EMAIL]"},
	{ibanPattern, "[IBAN]"},
	{peselPattern, "[PESEL]"},
	{nipPattern, "[NIP]"},
	{regonPattern, "[REGON]"},
	{phonePattern, "[PHONE]"},
	{postalPLPattern, "[POSTAL]"},
	{postalIntlPattern, "[POSTAL]"},
	{namePattern, "[NAME]"},
	{streetPattern, "[ADDRESS]"},
}

// Anonymize replaces PII in the text with placeholders.
func Anonymize(text string) string {
	for _, r := range replacements {
		text = r.pattern.ReplaceAllString(text, r.token)
	}
	return text
}

// AnonymizePages anonymizes each page of text.
func AnonymizePages(pages []string) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = Anonymize(p)
	}
	return out
}
