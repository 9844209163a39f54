package pipeline

import (
	"strings"

	"github.com/nijaru/yt-summary/alignment"
	"github.com/nijaru/yt-summary/errors"
)

// Render produces the text shown for a successful run: the cleaned
// transcript followed by the summary, one line per sentence when timestamps
// were aligned.
func Render(result *Result) string {
	var sb strings.Builder

	sb.WriteString("Transcript:\n")
	sb.WriteString(result.Cleaned)
	sb.WriteString("\n\nSummary:\n")

	if len(result.Sentences) > 0 {
		sb.WriteString(alignment.Format(result.Sentences))
	} else {
		sb.WriteString(result.Summary)
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderError returns the single displayed error line.
func RenderError(err error) string {
	return errors.Display(err)
}
