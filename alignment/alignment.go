package alignment

import (
	"fmt"
	"strings"

	"github.com/nijaru/yt-summary/transcript"
	"github.com/sirupsen/logrus"
)

// Sentence is one summary sentence. Start is nil when the sentence does not
// occur verbatim in the transcript.
type Sentence struct {
	Text  string   `json:"text"`
	Start *float64 `json:"start"`
}

func (s Sentence) Format() string {
	if s.Start == nil {
		return s.Text + " (No timestamp available)"
	}
	return fmt.Sprintf("%s (Timestamp: %.2f s)", s.Text, *s.Start)
}

// SplitSentences splits summary on ". " and puts the period back on every
// sentence but the last, which keeps whatever ending it had.
func SplitSentences(summary string) []string {
	parts := strings.Split(summary, ". ")
	sentences := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i < len(parts)-1 {
			part += "."
		}
		sentences = append(sentences, part)
	}
	return sentences
}

// Align attaches to each summary sentence the start time of a caption entry
// overlapping the sentence's verbatim occurrence in transcriptText.
// Paraphrased sentences get no timestamp.
func Align(entries []transcript.Entry, transcriptText, summary string) []Sentence {
	sentences := SplitSentences(summary)
	aligned := make([]Sentence, 0, len(sentences))
	matched := 0

	for _, text := range sentences {
		sentence := Sentence{Text: text}
		if start, ok := locate(entries, transcriptText, text); ok {
			sentence.Start = &start
			matched++
		}
		aligned = append(aligned, sentence)
	}

	logrus.WithFields(logrus.Fields{
		"sentences": len(aligned),
		"matched":   matched,
	}).Debug("Aligned summary sentences")

	return aligned
}

// entrySpan is the byte range an entry's text covers in the transcript.
type entrySpan struct {
	start int
	end   int
	entry transcript.Entry
}

// entrySpans locates each non-empty entry in transcriptText, in order. Entries
// that cannot be found after the previous one are left out.
func entrySpans(entries []transcript.Entry, transcriptText string) []entrySpan {
	spans := make([]entrySpan, 0, len(entries))
	pos := 0
	for _, entry := range entries {
		if entry.Text == "" {
			continue
		}
		i := strings.Index(transcriptText[pos:], entry.Text)
		if i < 0 {
			continue
		}
		start := pos + i
		end := start + len(entry.Text)
		spans = append(spans, entrySpan{start: start, end: end, entry: entry})
		pos = end
	}
	return spans
}

// locate finds the first verbatim occurrence of sentence and returns the
// start of the first entry lying wholly inside it. Failing that, the entry
// covering the occurrence's first byte wins, then any entry overlapping it.
func locate(entries []transcript.Entry, transcriptText, sentence string) (float64, bool) {
	offset := strings.Index(transcriptText, sentence)
	if offset < 0 {
		return 0, false
	}
	end := offset + len(sentence)
	spans := entrySpans(entries, transcriptText)

	for _, span := range spans {
		if span.start >= offset && span.end <= end {
			return span.entry.Start, true
		}
	}
	for _, span := range spans {
		if span.start <= offset && offset < span.end {
			return span.entry.Start, true
		}
	}
	for _, span := range spans {
		if span.start < end && offset < span.end {
			return span.entry.Start, true
		}
	}
	return 0, false
}

// Format renders every sentence on its own line.
func Format(sentences []Sentence) string {
	lines := make([]string, 0, len(sentences))
	for _, s := range sentences {
		lines = append(lines, s.Format())
	}
	return strings.Join(lines, "\n")
}
