package anonymize

import (
	"regexp"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

// Placeholder tags, one per PII class, so redaction is assertable per class.
const (
	TagEmailParam = "[ANONYMIZED_EMAIL_PARAM]"
	TagMailto     = "[ANONYMIZED_MAILTO]"
	TagEmail      = "[ANONYMIZED_EMAIL]"
	TagSSN        = "[ANONYMIZED_SSN]"
	TagPhone      = "[ANONYMIZED_PHONE]"
)

var (
	urlEmailPattern = regexp.MustCompile(`(?i)(?:email|mail|to)=[a-zA-Z0-9._%+\-]+(?:%40|@)[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	mailtoPattern   = regexp.MustCompile(`mailto:[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	ssnPattern      = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	phonePattern    = regexp.MustCompile(`\b\+?\d[\d\s\-().]{7,14}\d\b`)
)

// Anonymize scrubs PII from text. The passes run in strict order so that more
// specific overlapping patterns are consumed before general ones: URL-encoded
// email parameters, mailto links, plain emails, then SSN strictly before
// phone. A dashed nine-digit SSN also matches the phone shape, so swapping
// the last two passes would mislabel it.
func Anonymize(text string) string {
	text = urlEmailPattern.ReplaceAllString(text, TagEmailParam)
	text = mailtoPattern.ReplaceAllString(text, TagMailto)
	text = emailPattern.ReplaceAllString(text, TagEmail)
	text = ssnPattern.ReplaceAllString(text, TagSSN)
	text = phonePattern.ReplaceAllString(text, TagPhone)
	return text
}

// Documents scrubs every document's content in place and returns the same
// slice for chaining.
func Documents(docs []domain.Document) []domain.Document {
	for i := range docs {
		docs[i].Content = Anonymize(docs[i].Content)
	}
	return docs
}
