package utils

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

var (
	bracketedRe  = regexp.MustCompile(`\[.*?\]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeText removes bracketed annotations such as inline timecodes and
// collapses whitespace. Nested brackets are not supported.
func NormalizeText(text string) string {
	text = bracketedRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// RespondWithError writes err as {"error": "Error: ..."} with its status code.
func RespondWithError(w http.ResponseWriter, err error) {
	code := errors.StatusCode(err)

	logrus.WithFields(logrus.Fields{
		"status_code": code,
		"kind":        errors.KindOf(err),
		"error":       err.Error(),
	}).Error("Request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": errors.Display(err)})
}

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}
