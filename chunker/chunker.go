package chunker

import (
	"regexp"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxLength = 500
	DefaultMinLength = 50
)

var sentenceBoundaryRe = regexp.MustCompile(`[.!?]\s+`)

// Chunk is a contiguous slice of the source text. Start and End are byte
// offsets into that text.
type Chunk struct {
	Index   int
	Content string
	Start   int
	End     int
}

type Config struct {
	MaxLength int
	MinLength int
}

type Chunker struct {
	config Config
}

func New(cfg Config) *Chunker {
	if cfg.MaxLength < 1 {
		cfg.MaxLength = 1
	}
	if cfg.MinLength < 0 {
		cfg.MinLength = 0
	}
	return &Chunker{config: cfg}
}

func Default() *Chunker {
	return New(Config{MaxLength: DefaultMaxLength, MinLength: DefaultMinLength})
}

func (c *Chunker) Config() Config {
	return c.config
}

// Chunk splits text along sentence boundaries and drops chunks shorter than
// the configured minimum. Dropped chunks never reach the model.
func (c *Chunker) Chunk(text string) []Chunk {
	var kept []Chunk
	for _, span := range splitSpans(text, c.config.MaxLength) {
		content := text[span.start:span.end]
		if length(content) < c.config.MinLength {
			logrus.WithFields(logrus.Fields{
				"length":     length(content),
				"min_length": c.config.MinLength,
				"offset":     span.start,
			}).Debug("Skipping short chunk")
			continue
		}
		kept = append(kept, Chunk{
			Index:   len(kept),
			Content: content,
			Start:   span.start,
			End:     span.end,
		})
	}
	return kept
}

// Split returns every chunk of text, short ones included.
func Split(text string, maxLength int) []string {
	if maxLength < 1 {
		maxLength = 1
	}
	spans := splitSpans(text, maxLength)
	chunks := make([]string, 0, len(spans))
	for _, span := range spans {
		chunks = append(chunks, text[span.start:span.end])
	}
	return chunks
}

// SplitSentences splits on sentence-ending punctuation followed by
// whitespace. The punctuation stays with its sentence.
func SplitSentences(text string) []string {
	spans := sentenceSpans(text)
	sentences := make([]string, 0, len(spans))
	for _, span := range spans {
		sentences = append(sentences, text[span.start:span.end])
	}
	return sentences
}

type span struct {
	start int
	end   int
}

func sentenceSpans(text string) []span {
	var spans []span
	start := 0
	for _, loc := range sentenceBoundaryRe.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation, which belongs to the sentence.
		end := loc[0] + 1
		if s, ok := trimSpan(text, start, end); ok {
			spans = append(spans, s)
		}
		start = loc[1]
	}
	if s, ok := trimSpan(text, start, len(text)); ok {
		spans = append(spans, s)
	}
	return spans
}

func splitSpans(text string, maxLength int) []span {
	var chunks []span
	var current span
	currentLen := 0
	open := false

	for _, sentence := range sentenceSpans(text) {
		sentenceLen := length(text[sentence.start:sentence.end])
		if !open {
			current, currentLen, open = sentence, sentenceLen, true
			continue
		}
		if currentLen+1+sentenceLen > maxLength {
			chunks = append(chunks, current)
			current, currentLen = sentence, sentenceLen
			continue
		}
		current.end = sentence.end
		currentLen += 1 + sentenceLen
	}
	if open {
		chunks = append(chunks, current)
	}
	return chunks
}

func trimSpan(text string, start, end int) (span, bool) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return span{start: start, end: end}, start < end
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
