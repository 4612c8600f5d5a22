package repository_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/repository"
)

func seedInterview(t *testing.T, repo repository.Repository) *model.Interview {
	t.Helper()

	interview := &model.Interview{
		ID:     model.NewInterviewID(),
		Role:   "backend engineer",
		Skills: []string{"go"},
		Status: model.StatusInProgress,
		Questions: []*model.Question{
			{ID: model.NewQuestionID(), Text: "q1", Order: 0},
			{ID: model.NewQuestionID(), Text: "q2", Order: 1},
		},
		CreatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutInterview(context.Background(), interview))
	return interview
}

func TestInterviewRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	interview := seedInterview(t, repo)

	got := gt.R1(repo.GetInterview(ctx, interview.ID)).NoError(t)
	gt.V(t, got.ID).Equal(interview.ID)
	gt.V(t, got.Role).Equal("backend engineer")
	gt.A(t, got.Questions).Length(2)

	_, err := repo.GetInterview(ctx, model.NewInterviewID())
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrNotFound)).True()
}

func TestDuplicateAnswerRejected(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	interview := seedInterview(t, repo)

	first := &model.Transcript{
		ID:          model.NewTranscriptID(),
		InterviewID: interview.ID,
		QuestionID:  interview.Questions[0].ID,
		Answer:      "first take",
		Status:      model.EvaluationPending,
		CreatedAt:   time.Now(),
	}
	gt.NoError(t, repo.CreateTranscript(ctx, first))

	second := &model.Transcript{
		ID:          model.NewTranscriptID(),
		InterviewID: interview.ID,
		QuestionID:  interview.Questions[0].ID,
		Answer:      "second take",
		Status:      model.EvaluationPending,
		CreatedAt:   time.Now(),
	}
	err := repo.CreateTranscript(ctx, second)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrDuplicateAnswer)).True()

	// The first answer is untouched and the second was never stored
	got := gt.R1(repo.GetTranscript(ctx, first.ID)).NoError(t)
	gt.V(t, got.Answer).Equal("first take")
	_, err = repo.GetTranscript(ctx, second.ID)
	gt.Error(t, err)

	// A different question is still answerable
	third := &model.Transcript{
		ID:          model.NewTranscriptID(),
		InterviewID: interview.ID,
		QuestionID:  interview.Questions[1].ID,
		Answer:      "other question",
		Status:      model.EvaluationPending,
		CreatedAt:   time.Now(),
	}
	gt.NoError(t, repo.CreateTranscript(ctx, third))
}

func TestUpdateInterviewStatusCAS(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	interview := seedInterview(t, repo)

	gt.NoError(t, repo.UpdateInterviewStatus(ctx, interview.ID, model.StatusInProgress, model.StatusReporting))

	err := repo.UpdateInterviewStatus(ctx, interview.ID, model.StatusInProgress, model.StatusReporting)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrAlreadyClaimed)).True()

	gt.NoError(t, repo.UpdateInterviewStatus(ctx, interview.ID, model.StatusReporting, model.StatusCompleted))

	got := gt.R1(repo.GetInterview(ctx, interview.ID)).NoError(t)
	gt.V(t, got.Status).Equal(model.StatusCompleted)
}

func TestUpdateInterviewStatusSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	interview := seedInterview(t, repo)

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.UpdateInterviewStatus(ctx, interview.ID, model.StatusInProgress, model.StatusReporting) == nil {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	gt.V(t, atomic.LoadInt64(&wins)).Equal(int64(1))
}

func TestGetLatestReport(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	interview := seedInterview(t, repo)

	_, err := repo.GetLatestReport(ctx, interview.ID)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrReportNotReady)).True()

	old := &model.Report{
		ID:          model.NewReportID(),
		InterviewID: interview.ID,
		Content:     "old report",
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	newer := &model.Report{
		ID:          model.NewReportID(),
		InterviewID: interview.ID,
		Content:     "new report",
		CreatedAt:   time.Now(),
	}
	gt.NoError(t, repo.PutReport(ctx, old))
	gt.NoError(t, repo.PutReport(ctx, newer))

	got := gt.R1(repo.GetLatestReport(ctx, interview.ID)).NoError(t)
	gt.V(t, got.Content).Equal("new report")
}

func TestListMemoriesOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	base := time.Now()
	for i := 0; i < 4; i++ {
		gt.NoError(t, repo.PutMemory(ctx, &model.MemoryRecord{
			ID:        model.NewMemoryID(),
			UserID:    "user-1",
			Type:      model.MemoryWeakness,
			Content:   "note",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	// Other user and other type stay invisible
	gt.NoError(t, repo.PutMemory(ctx, &model.MemoryRecord{
		ID: model.NewMemoryID(), UserID: "user-2", Type: model.MemoryWeakness, CreatedAt: base,
	}))
	gt.NoError(t, repo.PutMemory(ctx, &model.MemoryRecord{
		ID: model.NewMemoryID(), UserID: "user-1", Type: model.MemoryStrength, CreatedAt: base,
	}))

	memories := gt.R1(repo.ListMemories(ctx, "user-1", model.MemoryWeakness, 3)).NoError(t)
	gt.A(t, memories).Length(3)
	// Newest first
	gt.V(t, memories[0].CreatedAt.After(memories[1].CreatedAt)).Equal(true)
	gt.V(t, memories[1].CreatedAt.After(memories[2].CreatedAt)).Equal(true)
}

func TestUserAggregateUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	_, err := repo.GetUserAggregate(ctx, "user-1")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrNotFound)).True()

	gt.NoError(t, repo.PutUserAggregate(ctx, &model.UserAggregate{
		UserID:   "user-1",
		AvgScore: 55,
	}))
	gt.NoError(t, repo.PutUserAggregate(ctx, &model.UserAggregate{
		UserID:     "user-1",
		AvgScore:   72,
		Strengths:  []string{"api"},
		Weaknesses: []string{"database"},
	}))

	got := gt.R1(repo.GetUserAggregate(ctx, "user-1")).NoError(t)
	gt.V(t, got.AvgScore).Equal(72.0)
	gt.V(t, got.Strengths).Equal([]string{"api"})
}
