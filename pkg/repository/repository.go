package repository

import (
	"context"

	"github.com/voxmock/voxmock/pkg/model"
)

// Repository defines keyed access to interview data. Interviews, transcripts
// and reports are keyed by interview ID; memories and aggregates are the only
// entities shared across interviews, keyed by user ID.
type Repository interface {
	// PutInterview saves an interview with its questions
	PutInterview(ctx context.Context, interview *model.Interview) error

	// GetInterview retrieves an interview by ID
	GetInterview(ctx context.Context, id model.InterviewID) (*model.Interview, error)

	// UpdateInterviewStatus transitions the interview status atomically.
	// It fails with ErrAlreadyClaimed when the current status differs from
	// expected, which makes report generation claimable exactly once.
	UpdateInterviewStatus(ctx context.Context, id model.InterviewID, expected, next model.InterviewStatus) error

	// CreateTranscript persists a newly submitted answer. At most one
	// transcript may exist per (interview, question); a second submission
	// fails with ErrDuplicateAnswer.
	CreateTranscript(ctx context.Context, transcript *model.Transcript) error

	// GetTranscript retrieves a transcript by ID
	GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error)

	// UpdateTranscript writes evaluation results onto an existing transcript
	UpdateTranscript(ctx context.Context, transcript *model.Transcript) error

	// ListTranscripts retrieves all transcripts of an interview
	ListTranscripts(ctx context.Context, interviewID model.InterviewID) ([]*model.Transcript, error)

	// PutReport saves a generated report
	PutReport(ctx context.Context, report *model.Report) error

	// GetLatestReport retrieves the most recent report of an interview.
	// Returns ErrReportNotReady when none exists.
	GetLatestReport(ctx context.Context, interviewID model.InterviewID) (*model.Report, error)

	// PutMemory appends a memory record
	PutMemory(ctx context.Context, memory *model.MemoryRecord) error

	// ListMemories retrieves up to limit most recent memories of a user and type
	ListMemories(ctx context.Context, userID string, memoryType model.MemoryType, limit int) ([]*model.MemoryRecord, error)

	// PutUserAggregate upserts the per-user aggregate
	PutUserAggregate(ctx context.Context, aggregate *model.UserAggregate) error

	// GetUserAggregate retrieves the aggregate of a user, ErrNotFound if absent
	GetUserAggregate(ctx context.Context, userID string) (*model.UserAggregate, error)

	Close() error
}
