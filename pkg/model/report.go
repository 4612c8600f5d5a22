package model

import (
	"time"

	"github.com/google/uuid"
)

type ReportID string

// NewReportID generates a new unique ReportID
func NewReportID() ReportID {
	return ReportID(uuid.New().String())
}

// Report is the narrative interview report. Multiple reports may exist for an
// interview; the most recent one is authoritative.
type Report struct {
	ID          ReportID
	InterviewID InterviewID
	Content     string
	Analysis    *SessionAnalysis
	CreatedAt   time.Time
}

// SessionAnalysis is the paralinguistic summary returned by the analysis
// service when a session stops. All fields are optional signals.
type SessionAnalysis struct {
	BodyLanguageScore float64            `json:"body_language_score"`
	VoiceToneScore    float64            `json:"voice_tone_score"`
	CombinedScore     float64            `json:"combined_score"`
	OverallStatus     string             `json:"overall_status"`
	QuestionAnalyses  []QuestionAnalysis `json:"question_analyses,omitempty"`
}

// QuestionAnalysis is the per-question signal breakdown within a session
type QuestionAnalysis struct {
	VoiceToneScore    float64 `json:"voice_tone_score"`
	BodyLanguageScore float64 `json:"body_language_score"`
}
