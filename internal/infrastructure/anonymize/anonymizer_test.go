package anonymize

import (
	"strings"
	"testing"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

func TestAnonymizeRedactsEachClass(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		secret  string
		wantTag string
	}{
		{
			name:    "url encoded email parameter",
			input:   "callback https://example.com/unsub?email=user%40domain.com&id=1",
			secret:  "user%40domain.com",
			wantTag: TagEmailParam,
		},
		{
			name:    "mailto link",
			input:   "reach us at mailto:sales@acme.io today",
			secret:  "mailto:sales@acme.io",
			wantTag: TagMailto,
		},
		{
			name:    "plain email",
			input:   "contact jane.doe+crm@corp.example.org for access",
			secret:  "jane.doe+crm@corp.example.org",
			wantTag: TagEmail,
		},
		{
			name:    "ssn shaped",
			input:   "applicant ssn 123-45-6789 on file",
			secret:  "123-45-6789",
			wantTag: TagSSN,
		},
		{
			name:    "phone shaped",
			input:   "call +1 (415) 555-0134 after lunch",
			secret:  "415) 555-0134",
			wantTag: TagPhone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Anonymize(tt.input)
			if strings.Contains(got, tt.secret) {
				t.Fatalf("Anonymize(%q) = %q, still contains %q", tt.input, got, tt.secret)
			}
			if !strings.Contains(got, tt.wantTag) {
				t.Fatalf("Anonymize(%q) = %q, missing tag %s", tt.input, got, tt.wantTag)
			}
		})
	}
}

func TestAnonymizeSSNBeforePhone(t *testing.T) {
	// A dashed nine-digit pattern is also phone shaped. It must be tagged as
	// SSN, never phone.
	got := Anonymize("ssn: 987-65-4321")
	if !strings.Contains(got, TagSSN) {
		t.Fatalf("got %q, want SSN tag", got)
	}
	if strings.Contains(got, TagPhone) {
		t.Fatalf("got %q, SSN was consumed by the phone pass", got)
	}
}

func TestAnonymizeLeavesCleanTextUntouched(t *testing.T) {
	inputs := []string{
		"",
		"quarterly revenue grew 12 percent",
		"meeting notes: renew the Acme contract in Q3",
	}
	for _, input := range inputs {
		if got := Anonymize(input); got != input {
			t.Fatalf("Anonymize(%q) = %q, want unchanged", input, got)
		}
	}
}

func TestDocumentsScrubsInPlace(t *testing.T) {
	docs := []domain.Document{
		{Content: "lead: buyer@example.com", Metadata: domain.Metadata{Source: domain.SourceRecords}},
		{Content: "no pii here", Metadata: domain.Metadata{Source: domain.SourceRecords}},
	}

	got := Documents(docs)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if strings.Contains(docs[0].Content, "buyer@example.com") {
		t.Fatalf("first document not scrubbed in place: %q", docs[0].Content)
	}
	if docs[1].Content != "no pii here" {
		t.Fatalf("clean document mutated: %q", docs[1].Content)
	}
}
