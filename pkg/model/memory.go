package model

import (
	"time"

	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

type MemoryType string

const (
	MemoryWeakness MemoryType = "weakness"
	MemoryStrength MemoryType = "strength"
	MemorySummary  MemoryType = "interview_summary"
)

// Validate checks if the memory type is valid
func (t MemoryType) Validate() error {
	switch t {
	case MemoryWeakness, MemoryStrength, MemorySummary:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// MemoryRecord is a durable embedded note tied to a user, used for
// personalization. Records are append-only and never deduplicated.
type MemoryRecord struct {
	ID      MemoryID
	UserID  string
	Type    MemoryType
	Content string

	Topic    string
	Score    float64
	Question string

	// PointID references the corresponding vector index point
	PointID string

	CreatedAt time.Time
}

// UserAggregate is the rolled-up per-user performance record. One per user;
// replaced wholesale after each memory-extracted interview.
type UserAggregate struct {
	UserID        string
	AvgScore      float64
	Strengths     []string
	Weaknesses    []string
	LastInterview time.Time
	UpdatedAt     time.Time
}
