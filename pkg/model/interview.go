package model

import (
	"time"

	"github.com/google/uuid"
)

type InterviewID string

// NewInterviewID generates a new unique InterviewID
func NewInterviewID() InterviewID {
	return InterviewID(uuid.New().String())
}

type QuestionID string

// NewQuestionID generates a new unique QuestionID
func NewQuestionID() QuestionID {
	return QuestionID(uuid.New().String())
}

type InterviewStatus string

const (
	// StatusInProgress: questions generated, answers being collected and scored
	StatusInProgress InterviewStatus = "in_progress"
	// StatusReporting: all answers scored, report generation claimed by one worker
	StatusReporting InterviewStatus = "reporting"
	// StatusCompleted: report persisted
	StatusCompleted InterviewStatus = "completed"
)

// Validate checks if the status is valid
func (s InterviewStatus) Validate() error {
	switch s {
	case StatusInProgress, StatusReporting, StatusCompleted:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Interview is a single mock interview session with its generated questions.
// Questions are embedded in the interview document; they are written once at
// creation and never mutated.
type Interview struct {
	ID        InterviewID
	Role      string
	Skills    []string
	UserName  string
	UserID    string
	Status    InterviewStatus
	Questions []*Question
	CreatedAt time.Time
}

// Question is one generated interview question, ordered within its interview
type Question struct {
	ID    QuestionID
	Text  string
	Order int
}

// QuestionByID returns the question with the given ID, or nil
func (x *Interview) QuestionByID(id QuestionID) *Question {
	for _, q := range x.Questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}
