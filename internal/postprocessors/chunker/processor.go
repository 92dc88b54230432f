// Package chunker provides a recursive, separator-aware text splitter.
//
// Text is cut at the coarsest separator that keeps chunks within the size
// limit: paragraph breaks, then line breaks, then sentence ends, then spaces,
// and finally a hard character cut. Consecutive chunks overlap by a fixed
// number of characters. Lengths are measured in characters (runes).
package chunker

import (
	"context"
	"fmt"
	"slices"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultSeparators are tried in order, coarsest first.
// The empty separator stands for the hard character cut.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Ensure Processor implements the interface.
var _ driven.TextSplitter = (*Processor)(nil)

// Span is a chunk together with its rune offsets in the source text.
type Span struct {
	Text  string
	Start int
	End   int
}

// Len returns the chunk length in characters.
func (s Span) Len() int {
	return s.End - s.Start
}

// Processor splits text into overlapping chunks.
type Processor struct {
	chunkSize  int
	overlap    int
	separators [][]rune
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator hierarchy.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		if len(seps) > 0 {
			p.separators = toRunes(seps)
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: toRunes(DefaultSeparators),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Chunk splits text with the given size and overlap.
// Returns domain.ErrInvalidInput unless 0 <= overlap < size.
func Chunk(text string, chunkSize, chunkOverlap int) ([]string, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: need 0 <= chunk_overlap (%d) < chunk_size (%d)",
			domain.ErrInvalidInput, chunkOverlap, chunkSize)
	}
	p := New(WithChunkSize(chunkSize), WithOverlap(chunkOverlap))
	return spanTexts(p.Split(text)), nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// SplitText returns the chunk texts in document order.
func (p *Processor) SplitText(_ context.Context, text string) ([]string, error) {
	return spanTexts(p.Split(text)), nil
}

// Split returns the chunks of text with their offsets.
//
// Each chunk after the first starts overlap characters before the end of the
// previous one (never before the start of the text). A chunk never runs past
// a paragraph or line break it could end at, and the coarser of the two
// wins. Otherwise it extends to the last sentence end or space that keeps it
// within the chunk size. When no boundary fits, the chunk is cut at exactly
// the chunk size.
func (p *Processor) Split(text string) []Span {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= p.chunkSize {
		return []Span{{Text: text, Start: 0, End: n}}
	}

	var bounds []boundary
	p.collect(runes, 0, n, 0, &bounds)

	spans := make([]Span, 0, n/(p.chunkSize-p.overlap)+1)
	start, prevEnd, next := 0, 0, 0
	for {
		limit := start + p.chunkSize
		if limit >= n {
			spans = append(spans, Span{Text: string(runes[start:n]), Start: start, End: n})
			return spans
		}

		for next < len(bounds) && bounds[next].pos <= prevEnd {
			next++
		}
		end, ok := p.pick(bounds[next:], limit)
		if !ok {
			end = limit
		}

		spans = append(spans, Span{Text: string(runes[start:end]), Start: start, End: end})

		prevEnd = end
		start = max(end-p.overlap, 0)
	}
}

// boundary is a chunk end candidate and the separator level that produced it.
type boundary struct {
	pos   int
	level int
}

// pick chooses the chunk end among the leading bounds that do not pass limit.
func (p *Processor) pick(bounds []boundary, limit int) (int, bool) {
	top := -1
	for _, b := range bounds {
		if b.pos > limit {
			break
		}
		if top < 0 || b.level < top {
			top = b.level
		}
	}
	if top < 0 {
		return 0, false
	}

	end := 0
	breakLevel := p.isBreak(top)
	for _, b := range bounds {
		if b.pos > limit {
			break
		}
		if !breakLevel || b.level == top {
			end = b.pos
		}
	}
	return end, true
}

// isBreak reports whether the separator at level ends a line.
func (p *Processor) isBreak(level int) bool {
	return slices.Contains(p.separators[level], '\n')
}

// collect appends the piece boundaries of runes[lo:hi] at the given separator level.
// Pieces longer than the chunk size are split again with the next separator.
// Boundaries are appended in ascending order. A position shared by several
// levels is kept once, with the coarsest level.
func (p *Processor) collect(runes []rune, lo, hi, level int, out *[]boundary) {
	if level >= len(p.separators) || len(p.separators[level]) == 0 {
		return
	}
	sep := p.separators[level]

	pieceStart := lo
	for pos := lo; pos < hi; {
		idx := indexRunes(runes[pos:hi], sep)
		if idx < 0 {
			break
		}
		cut := pos + idx + len(sep)
		p.piece(runes, pieceStart, cut, level, out)
		pieceStart, pos = cut, cut
	}
	p.piece(runes, pieceStart, hi, level, out)
}

func (p *Processor) piece(runes []rune, lo, hi, level int, out *[]boundary) {
	if lo >= hi {
		return
	}
	if hi-lo > p.chunkSize {
		p.collect(runes, lo, hi, level+1, out)
	}
	if last := len(*out) - 1; last >= 0 && (*out)[last].pos == hi {
		(*out)[last].level = min((*out)[last].level, level)
		return
	}
	*out = append(*out, boundary{pos: hi, level: level})
}

// indexRunes returns the index of the first occurrence of sep in s, or -1.
func indexRunes(s, sep []rune) int {
	for i := 0; i+len(sep) <= len(s); i++ {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func toRunes(seps []string) [][]rune {
	out := make([][]rune, len(seps))
	for i, s := range seps {
		out[i] = []rune(s)
	}
	return out
}

func spanTexts(spans []Span) []string {
	if len(spans) == 0 {
		return nil
	}
	texts := make([]string, len(spans))
	for i := range spans {
		texts[i] = spans[i].Text
	}
	return texts
}
