// ABOUTME: Content chunker splitting long plain text into bounded fragments
// ABOUTME: Splits at heading, paragraph, then sentence boundaries with greedy packing
package chunker

import (
	"regexp"
	"strings"
)

// DefaultMinFragmentLength drops noise fragments such as stray headings.
const DefaultMinFragmentLength = 50

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n\s*\n`)
	headingLine = regexp.MustCompile(`(?m)^#{1,6}\s`)
	sentenceEnd = regexp.MustCompile(`[^.!?]*[.!?]+(?:\s+|$)|[^.!?]+$`)
)

// Chunker splits text into fragments no longer than MaxChunkSize, except
// where a single sentence alone exceeds it. No overlap is introduced between
// adjacent chunks; sliding-window overlap would improve retrieval recall at
// chunk boundaries and is a known candidate improvement.
type Chunker struct {
	MaxChunkSize      int
	MinFragmentLength int
}

// New creates a Chunker with the given size bound and the default noise filter.
func New(maxChunkSize int) *Chunker {
	return &Chunker{
		MaxChunkSize:      maxChunkSize,
		MinFragmentLength: DefaultMinFragmentLength,
	}
}

// Chunk splits text into non-empty fragments. Sections are cut at
// heading-like boundaries first; within a section, paragraphs are packed
// greedily until the next paragraph would exceed the limit. A paragraph that
// alone exceeds the limit is re-split at sentence boundaries with the same
// packing rule.
func (c *Chunker) Chunk(text string) []string {
	clean := normalize(text)
	if clean == "" {
		return nil
	}

	var chunks []string
	for _, section := range splitSections(clean) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		if len(section) <= c.MaxChunkSize {
			chunks = append(chunks, section)
			continue
		}

		var buf strings.Builder
		flush := func() {
			if s := strings.TrimSpace(buf.String()); s != "" {
				chunks = append(chunks, s)
			}
			buf.Reset()
		}

		for _, para := range blankLines.Split(section, -1) {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}

			if len(para) > c.MaxChunkSize {
				flush()
				chunks = append(chunks, c.packSentences(para)...)
				continue
			}

			if buf.Len()+len(para) > c.MaxChunkSize && buf.Len() > 0 {
				flush()
			}
			buf.WriteString(para)
			buf.WriteString("\n\n")
		}
		flush()
	}

	var out []string
	for _, chunk := range chunks {
		if len(chunk) >= c.MinFragmentLength {
			out = append(out, chunk)
		}
	}
	return out
}

// packSentences splits an oversized paragraph at sentence boundaries and
// greedily packs sentences up to the size limit. A sentence longer than the
// limit stands alone.
func (c *Chunker) packSentences(para string) []string {
	var out []string
	var buf strings.Builder

	for _, sentence := range sentenceEnd.FindAllString(para, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if buf.Len()+len(sentence) > c.MaxChunkSize && buf.Len() > 0 {
			out = append(out, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
		buf.WriteString(sentence)
		buf.WriteString(" ")
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// normalize collapses runs of spaces and tabs while preserving paragraph breaks.
func normalize(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// splitSections cuts text before each heading-like line.
func splitSections(text string) []string {
	idxs := headingLine.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}

	var sections []string
	prev := 0
	for _, idx := range idxs {
		if idx[0] > prev {
			sections = append(sections, text[prev:idx[0]])
		}
		prev = idx[0]
	}
	sections = append(sections, text[prev:])
	return sections
}
