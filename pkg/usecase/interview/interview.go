package interview

import (
	"context"

	"github.com/voxmock/voxmock/pkg/adapter"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/repository"
	"github.com/voxmock/voxmock/pkg/usecase/evaluate"
	"github.com/voxmock/voxmock/pkg/usecase/memory"
)

// Dispatcher hands a submitted answer to the asynchronous evaluation pipeline
type Dispatcher interface {
	Dispatch(task evaluate.Task) error
}

// ContextBuilder supplies personalization context for question generation
type ContextBuilder interface {
	Build(ctx context.Context, userID string, skills []string) (*memory.InterviewContext, error)
}

// MemoryExtractor distills a finished interview into user memories
type MemoryExtractor interface {
	ExtractFromReport(ctx context.Context, interviewID model.InterviewID, userID string) error
}

// CompletionChecker re-runs completion detection for an interview. Report
// fetches use it to recover an interview whose report generation failed after
// the final answer, when no further evaluation would trigger it.
type CompletionChecker interface {
	CheckCompletion(ctx context.Context, interviewID model.InterviewID) error
}

// UseCase implements the interview lifecycle: creation, answer intake,
// evaluation polling and report retrieval
type UseCase struct {
	repo        repository.Repository
	gemini      adapter.Gemini
	transcriber adapter.Transcriber
	analysis    adapter.Analysis
	dispatcher  Dispatcher

	archive    adapter.Storage
	builder    ContextBuilder
	memory     MemoryExtractor
	completion CompletionChecker
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithArchive enables durable audio archiving of submitted answers
func WithArchive(archive adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.archive = archive
	}
}

// WithContextBuilder enables context-biased question generation
func WithContextBuilder(builder ContextBuilder) Option {
	return func(uc *UseCase) {
		uc.builder = builder
	}
}

// WithExtractor enables memory extraction on report delivery
func WithExtractor(extractor MemoryExtractor) Option {
	return func(uc *UseCase) {
		uc.memory = extractor
	}
}

// WithCompletionChecker enables report generation retry on report fetch
func WithCompletionChecker(checker CompletionChecker) Option {
	return func(uc *UseCase) {
		uc.completion = checker
	}
}

// New creates a new interview UseCase
func New(repo repository.Repository, gemini adapter.Gemini, transcriber adapter.Transcriber, analysis adapter.Analysis, dispatcher Dispatcher, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:        repo,
		gemini:      gemini,
		transcriber: transcriber,
		analysis:    analysis,
		dispatcher:  dispatcher,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
