package models

import (
	"encoding/json"
	"testing"

	"github.com/nijaru/yt-summary/alignment"
	"github.com/nijaru/yt-summary/pipeline"
)

func TestNewSummaryResponse(t *testing.T) {
	start := 2.0
	resp := NewSummaryResponse(&pipeline.Result{
		Source:     pipeline.SourceYouTube,
		VideoID:    "dQw4w9WgXcQ",
		Transcript: "raw  text",
		Cleaned:    "raw text",
		Summary:    "A. B.",
		Sentences: []alignment.Sentence{
			{Text: "A."},
			{Text: "B.", Start: &start},
		},
	})

	if resp.Transcript != "raw text" {
		t.Errorf("expected cleaned transcript, got %q", resp.Transcript)
	}
	if len(resp.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(resp.Sentences))
	}
	if resp.Sentences[0].Formatted != "A. (No timestamp available)" {
		t.Errorf("unexpected formatted sentence %q", resp.Sentences[0].Formatted)
	}
	if resp.Sentences[1].Formatted != "B. (Timestamp: 2.00 s)" {
		t.Errorf("unexpected formatted sentence %q", resp.Sentences[1].Formatted)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["source"] != "youtube" || decoded["video_id"] != "dQw4w9WgXcQ" {
		t.Errorf("unexpected JSON %s", data)
	}
	if _, ok := decoded["error"]; ok {
		t.Errorf("error field should be omitted on success: %s", data)
	}
}

func TestNewSummaryResponseText(t *testing.T) {
	resp := NewSummaryResponse(&pipeline.Result{Source: pipeline.SourceText, Cleaned: "x", Summary: "x"})
	if resp.VideoID != "" || resp.Sentences != nil {
		t.Errorf("text results carry no video or sentences: %+v", resp)
	}
}
