package ingest

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators are tried in order: paragraph breaks first, then line
// breaks, then words, finally a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks document text into overlapping chunks sized for
// embedding. It splits on the coarsest separator that keeps pieces under
// the chunk size, recursing to finer separators for oversized pieces, and
// carries a tail of the previous chunk into the next one for context.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter returns a splitter producing chunks of at most chunkSize
// runes with the given rune overlap. Overlap must be smaller than
// chunkSize; the config layer enforces this.
func NewSplitter(chunkSize, overlap int) *Splitter {
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split returns the chunks of text in document order. Chunks are trimmed
// of surrounding whitespace and never empty.
func (s *Splitter) Split(text string) []string {
	raw := s.split(text, s.separators)
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *Splitter) split(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.windows(text)
	}

	sep := seps[0]
	if sep == "" {
		return s.windows(text)
	}
	if !strings.Contains(text, sep) {
		return s.split(text, seps[1:])
	}

	// SplitAfter keeps the separator attached so no input runes are lost.
	parts := strings.SplitAfter(text, sep)
	pieces := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) > s.chunkSize {
			pieces = append(pieces, s.split(p, seps[1:])...)
		} else {
			pieces = append(pieces, p)
		}
	}
	return s.merge(pieces)
}

// merge greedily packs pieces into chunks of at most chunkSize runes.
// When a chunk is emitted, pieces totalling at most overlap runes are kept
// as the start of the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var cur []string
	total := 0

	for _, p := range pieces {
		l := utf8.RuneCountInString(p)
		if total+l > s.chunkSize && len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, ""))
			for len(cur) > 0 && (total > s.overlap || total+l > s.chunkSize) {
				total -= utf8.RuneCountInString(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += l
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, ""))
	}
	return chunks
}

// windows hard-cuts text into fixed rune windows with overlap. Used when
// no separator can break the text down further.
func (s *Splitter) windows(text string) []string {
	r := []rune(text)
	stride := s.chunkSize - s.overlap
	if stride <= 0 {
		stride = s.chunkSize
	}

	var out []string
	for start := 0; start < len(r); start += stride {
		end := start + s.chunkSize
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[start:end]))
		if end == len(r) {
			break
		}
	}
	return out
}
