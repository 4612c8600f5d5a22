package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/model"
)

type answerKey struct {
	interview model.InterviewID
	question  model.QuestionID
}

// memoryRepo is an in-memory Repository for tests and local development.
// All operations take the single mutex, which also makes status transitions
// and answer-slot creation atomic.
type memoryRepo struct {
	mu          sync.Mutex
	interviews  map[model.InterviewID]model.Interview
	transcripts map[model.TranscriptID]model.Transcript
	answers     map[answerKey]model.TranscriptID
	reports     map[model.ReportID]model.Report
	memories    []model.MemoryRecord
	aggregates  map[string]model.UserAggregate
}

// NewMemory creates an in-memory repository
func NewMemory() Repository {
	return &memoryRepo{
		interviews:  make(map[model.InterviewID]model.Interview),
		transcripts: make(map[model.TranscriptID]model.Transcript),
		answers:     make(map[answerKey]model.TranscriptID),
		reports:     make(map[model.ReportID]model.Report),
		aggregates:  make(map[string]model.UserAggregate),
	}
}

func (r *memoryRepo) PutInterview(ctx context.Context, interview *model.Interview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interviews[interview.ID] = *interview
	return nil
}

func (r *memoryRepo) GetInterview(ctx context.Context, id model.InterviewID) (*model.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	interview, ok := r.interviews[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "interview not found", goerr.Value("id", id))
	}
	return &interview, nil
}

func (r *memoryRepo) UpdateInterviewStatus(ctx context.Context, id model.InterviewID, expected, next model.InterviewStatus) error {
	if err := next.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	interview, ok := r.interviews[id]
	if !ok {
		return goerr.Wrap(model.ErrNotFound, "interview not found", goerr.Value("id", id))
	}
	if interview.Status != expected {
		return goerr.Wrap(model.ErrAlreadyClaimed, "unexpected interview status",
			goerr.Value("id", id), goerr.Value("status", interview.Status))
	}
	interview.Status = next
	r.interviews[id] = interview
	return nil
}

func (r *memoryRepo) CreateTranscript(ctx context.Context, transcript *model.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := answerKey{interview: transcript.InterviewID, question: transcript.QuestionID}
	if _, ok := r.answers[key]; ok {
		return goerr.Wrap(model.ErrDuplicateAnswer, "question already answered",
			goerr.Value("interview", transcript.InterviewID),
			goerr.Value("question", transcript.QuestionID))
	}
	r.answers[key] = transcript.ID
	r.transcripts[transcript.ID] = *transcript
	return nil
}

func (r *memoryRepo) GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	transcript, ok := r.transcripts[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "transcript not found", goerr.Value("id", id))
	}
	return &transcript, nil
}

func (r *memoryRepo) UpdateTranscript(ctx context.Context, transcript *model.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transcripts[transcript.ID]; !ok {
		return goerr.Wrap(model.ErrNotFound, "transcript not found", goerr.Value("id", transcript.ID))
	}
	r.transcripts[transcript.ID] = *transcript
	return nil
}

func (r *memoryRepo) ListTranscripts(ctx context.Context, interviewID model.InterviewID) ([]*model.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var transcripts []*model.Transcript
	for _, transcript := range r.transcripts {
		if transcript.InterviewID == interviewID {
			t := transcript
			transcripts = append(transcripts, &t)
		}
	}
	return transcripts, nil
}

func (r *memoryRepo) PutReport(ctx context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ID] = *report
	return nil
}

func (r *memoryRepo) GetLatestReport(ctx context.Context, interviewID model.InterviewID) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *model.Report
	for _, report := range r.reports {
		if report.InterviewID != interviewID {
			continue
		}
		if latest == nil || report.CreatedAt.After(latest.CreatedAt) {
			rep := report
			latest = &rep
		}
	}
	if latest == nil {
		return nil, goerr.Wrap(model.ErrReportNotReady, "no report for interview", goerr.Value("interview", interviewID))
	}
	return latest, nil
}

func (r *memoryRepo) PutMemory(ctx context.Context, memory *model.MemoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories = append(r.memories, *memory)
	return nil
}

func (r *memoryRepo) ListMemories(ctx context.Context, userID string, memoryType model.MemoryType, limit int) ([]*model.MemoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var memories []*model.MemoryRecord
	for _, memory := range r.memories {
		if memory.UserID == userID && memory.Type == memoryType {
			m := memory
			memories = append(memories, &m)
		}
	}

	sort.Slice(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}
	return memories, nil
}

func (r *memoryRepo) PutUserAggregate(ctx context.Context, aggregate *model.UserAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates[aggregate.UserID] = *aggregate
	return nil
}

func (r *memoryRepo) GetUserAggregate(ctx context.Context, userID string) (*model.UserAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aggregate, ok := r.aggregates[userID]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "user aggregate not found", goerr.Value("user", userID))
	}
	return &aggregate, nil
}

func (r *memoryRepo) Close() error {
	return nil
}
