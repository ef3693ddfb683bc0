package textsplit

import "strings"

// Sentences splits text on sentence-terminal punctuation and returns the
// trimmed, non-empty segments. The knowledge store and the vector index
// both use this split, so a document's stored chunks and its indexed
// entries always agree in count and order.
func Sentences(text string) []string {
	var chunks []string
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if chunk := strings.TrimSpace(b.String()); chunk != "" {
				chunks = append(chunks, chunk)
			}
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if chunk := strings.TrimSpace(b.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
