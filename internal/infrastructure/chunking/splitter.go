package chunking

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/intelforge/ai-bos/internal/core/domain"
)

// separators in priority order: paragraph break, line break, sentence
// terminator, space. A hard break at the size budget is the last resort.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter cuts document content into overlapping windows, preferring natural
// boundaries over hard breaks.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &Splitter{Size: size, Overlap: overlap}
}

// SplitDocument splits one document into chunks carrying the parent id, the
// document's metadata, and a byte range. Every chunk gets a source tag and a
// fetch timestamp even when the parent metadata lacks them.
func (s *Splitter) SplitDocument(doc domain.Document) []domain.Chunk {
	text := doc.Content
	if strings.TrimSpace(text) == "" {
		return nil
	}

	meta := doc.Metadata
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	chunks := make([]domain.Chunk, 0, len(text)/s.Size+1)
	start := 0
	for start < len(text) {
		end := start + s.Size
		if end >= len(text) {
			end = len(text)
		} else {
			end = s.cutPoint(text, start, end)
		}

		window := text[start:end]
		trimmedLeft := strings.TrimLeftFunc(window, unicode.IsSpace)
		content := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
		if content != "" {
			// Start/End delimit exactly the stored content, not the raw
			// window: text[Start:End] == Content.
			contentStart := start + len(window) - len(trimmedLeft)
			chunks = append(chunks, domain.Chunk{
				ParentID: doc.ID,
				Index:    len(chunks),
				Content:  content,
				Start:    contentStart,
				End:      contentStart + len(content),
				Metadata: meta,
			})
		}

		if end == len(text) {
			break
		}
		next := end - s.Overlap
		if next <= start {
			next = end
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return chunks
}

// cutPoint finds the best break position in (start, limit]: the last
// occurrence of the highest-priority separator that fits the budget, or a
// hard break when none does. A hard break never lands inside a multi-byte
// rune: the limit backs up to the nearest rune start so separator-free text
// (CJK prose) stays valid UTF-8.
func (s *Splitter) cutPoint(text string, start, limit int) int {
	window := text[start:limit]
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return start + idx + len(sep)
		}
	}
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	if limit == start {
		// A single rune wider than the whole budget still makes progress.
		_, size := utf8.DecodeRuneInString(text[start:])
		return start + size
	}
	return limit
}
