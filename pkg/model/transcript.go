package model

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptID string

// NewTranscriptID generates a new unique TranscriptID
func NewTranscriptID() TranscriptID {
	return TranscriptID(uuid.New().String())
}

type EvaluationStatus string

const (
	EvaluationPending   EvaluationStatus = "pending"
	EvaluationCompleted EvaluationStatus = "completed"
	EvaluationFailed    EvaluationStatus = "failed"
)

// EvaluationVersion is the current version of the Evaluation sub-record
const EvaluationVersion = 1

// Evaluation is the content evaluator's verdict on a single answer.
// It is a typed sub-record on the Transcript, written exactly once.
type Evaluation struct {
	Version      int
	Score        float64
	Notes        string
	Strengths    string
	Improvements string
}

// Transcript is the text of one spoken answer plus its derived scores.
// Answer and IDs are written at submission; all scoring fields are written
// exactly once by the evaluation worker.
type Transcript struct {
	ID          TranscriptID
	InterviewID InterviewID
	QuestionID  QuestionID
	Answer      string

	Status     EvaluationStatus
	Evaluation *Evaluation

	ResponseScore     float64
	VoiceToneScore    float64
	BodyLanguageScore float64
	FinalScore        float64

	CreatedAt   time.Time
	EvaluatedAt *time.Time
}
