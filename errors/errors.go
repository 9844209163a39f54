package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError for callers that need to branch on it.
type Kind string

const (
	KindInvalidInput          Kind = "invalid_input"
	KindInvalidURL            Kind = "invalid_url"
	KindTranscriptUnavailable Kind = "transcript_unavailable"
	KindSummarizationFailure  Kind = "summarization_failure"
	KindNotFound              Kind = "not_found"
	KindInternal              Kind = "internal"
)

type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"kind"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func E(op string, kind Kind, code int, err error, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, KindInvalidInput, http.StatusBadRequest, err, message)
}

// InvalidURL is a user-input error: the URL held no recognisable video ID.
func InvalidURL(op string, err error, message string) *AppError {
	return E(op, KindInvalidURL, http.StatusBadRequest, err, message)
}

// TranscriptUnavailable covers disabled captions, missing tracks and fetch
// failures. The message distinguishes the sub-case for display.
func TranscriptUnavailable(op string, err error, message string) *AppError {
	return E(op, KindTranscriptUnavailable, http.StatusUnprocessableEntity, err, message)
}

func SummarizationFailure(op string, err error, message string) *AppError {
	return E(op, KindSummarizationFailure, http.StatusBadGateway, err, message)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, KindNotFound, http.StatusNotFound, err, message)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, KindInternal, http.StatusInternalServerError, err, message)
}

// KindOf returns the Kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool              { return err != nil && KindOf(err) == KindNotFound }
func IsInvalidURL(err error) bool            { return err != nil && KindOf(err) == KindInvalidURL }
func IsTranscriptUnavailable(err error) bool { return err != nil && KindOf(err) == KindTranscriptUnavailable }
func IsSummarizationFailure(err error) bool  { return err != nil && KindOf(err) == KindSummarizationFailure }

// StatusCode maps err to an HTTP status.
func StatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Display renders err as the single line shown to a user.
func Display(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return "Error: " + appErr.Message
	}
	return "Error: " + err.Error()
}
