package models

import (
	"github.com/nijaru/yt-summary/pipeline"
)

// SummarizeRequest is the JSON body accepted by the API in place of a form.
type SummarizeRequest struct {
	Input      string `json:"input"`
	Timestamps bool   `json:"timestamps"`
	Refresh    bool   `json:"refresh"`
}

type SentenceResponse struct {
	Text      string   `json:"text"`
	Start     *float64 `json:"start"`
	Formatted string   `json:"formatted"`
}

// SummaryResponse represents the API response
type SummaryResponse struct {
	Source     string             `json:"source"`
	VideoID    string             `json:"video_id,omitempty"`
	Transcript string             `json:"transcript"`
	Summary    string             `json:"summary"`
	Sentences  []SentenceResponse `json:"sentences,omitempty"`
	Cached     bool               `json:"cached"`
	Error      string             `json:"error,omitempty"`
}

// NewSummaryResponse creates a response from a pipeline result
func NewSummaryResponse(r *pipeline.Result) *SummaryResponse {
	resp := &SummaryResponse{
		Source:     string(r.Source),
		VideoID:    r.VideoID,
		Transcript: r.Cleaned,
		Summary:    r.Summary,
		Cached:     r.Cached,
	}
	for _, s := range r.Sentences {
		resp.Sentences = append(resp.Sentences, SentenceResponse{
			Text:      s.Text,
			Start:     s.Start,
			Formatted: s.Format(),
		})
	}
	return resp
}
