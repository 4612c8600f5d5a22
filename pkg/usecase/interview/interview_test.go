package interview_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/repository"
	"github.com/voxmock/voxmock/pkg/usecase/evaluate"
	"github.com/voxmock/voxmock/pkg/usecase/interview"
	"github.com/voxmock/voxmock/pkg/usecase/memory"
	"google.golang.org/genai"
)

type mockGemini struct {
	generateFunc  func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	embeddingFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.generateFunc(ctx, contents, config)
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	if m.embeddingFunc != nil {
		return m.embeddingFunc(ctx, text)
	}
	return make([]float32, 768), nil
}

type mockTranscriber struct {
	transcribeFunc func(ctx context.Context, audio []byte) (string, error)
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if m.transcribeFunc != nil {
		return m.transcribeFunc(ctx, audio)
	}
	return "transcribed answer", nil
}

type mockDispatcher struct {
	tasks []evaluate.Task
	err   error
}

func (m *mockDispatcher) Dispatch(task evaluate.Task) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

type mockBuilder struct {
	buildFunc func(ctx context.Context, userID string, skills []string) (*memory.InterviewContext, error)
}

func (m *mockBuilder) Build(ctx context.Context, userID string, skills []string) (*memory.InterviewContext, error) {
	return m.buildFunc(ctx, userID, skills)
}

type mockChecker struct {
	calls []model.InterviewID
	err   error
}

func (m *mockChecker) CheckCompletion(ctx context.Context, interviewID model.InterviewID) error {
	m.calls = append(m.calls, interviewID)
	return m.err
}

type mockExtractor struct {
	calls []model.InterviewID
	err   error
}

func (m *mockExtractor) ExtractFromReport(ctx context.Context, interviewID model.InterviewID, userID string) error {
	m.calls = append(m.calls, interviewID)
	return m.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

const questionsJSON = `["Explain database indexing", "How do you test APIs?", "Describe a system design tradeoff"]`

func TestCreateInterview(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	var prompt string
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			prompt = contents[0].Parts[0].Text
			return textResponse(questionsJSON), nil
		},
	}

	uc := interview.New(repo, gemini, &mockTranscriber{}, nil, &mockDispatcher{})
	created := gt.R1(uc.Create(ctx, &interview.CreateInput{
		Role:   "backend engineer",
		Skills: []string{"go", "postgres"},
	})).NoError(t)

	gt.V(t, created.Status).Equal(model.StatusInProgress)
	gt.A(t, created.Questions).Length(3)
	gt.V(t, created.Questions[0].Order).Equal(0)
	gt.V(t, created.Questions[2].Order).Equal(2)
	gt.S(t, prompt).Contains("backend engineer")
	gt.S(t, prompt).Contains("go, postgres")

	// Persisted
	got := gt.R1(repo.GetInterview(ctx, created.ID)).NoError(t)
	gt.A(t, got.Questions).Length(3)
}

func TestCreateValidation(t *testing.T) {
	uc := interview.New(repository.NewMemory(), &mockGemini{}, &mockTranscriber{}, nil, &mockDispatcher{})

	_, err := uc.Create(context.Background(), &interview.CreateInput{Skills: []string{"go"}})
	gt.Error(t, err)

	_, err = uc.Create(context.Background(), &interview.CreateInput{Role: "backend engineer"})
	gt.Error(t, err)
}

func TestCreateWithContext(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	var prompt string
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			prompt = contents[0].Parts[0].Text
			return textResponse(questionsJSON), nil
		},
	}
	builder := &mockBuilder{
		buildFunc: func(ctx context.Context, userID string, skills []string) (*memory.InterviewContext, error) {
			return &memory.InterviewContext{Text: "User Performance History:\n- Weaknesses: database\n"}, nil
		},
	}

	uc := interview.New(repo, gemini, &mockTranscriber{}, nil, &mockDispatcher{},
		interview.WithContextBuilder(builder))
	_, err := uc.Create(ctx, &interview.CreateInput{
		Role:   "backend engineer",
		Skills: []string{"go"},
		UserID: "user-1",
	})
	gt.NoError(t, err)

	gt.S(t, prompt).Contains("CONTEXT:")
	gt.S(t, prompt).Contains("Weaknesses: database")
}

func TestCreateContextFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gt.S(t, contents[0].Parts[0].Text).NotContains("CONTEXT:")
			return textResponse(questionsJSON), nil
		},
	}
	builder := &mockBuilder{
		buildFunc: func(ctx context.Context, userID string, skills []string) (*memory.InterviewContext, error) {
			return nil, goerr.New("index unavailable")
		},
	}

	uc := interview.New(repository.NewMemory(), gemini, &mockTranscriber{}, nil, &mockDispatcher{},
		interview.WithContextBuilder(builder))
	created, err := uc.Create(ctx, &interview.CreateInput{
		Role:   "backend engineer",
		Skills: []string{"go"},
		UserID: "user-1",
	})
	gt.NoError(t, err)
	gt.A(t, created.Questions).Length(3)
}

func TestCreateQuestionGenerationFailure(t *testing.T) {
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("I cannot produce questions right now"), nil
		},
	}

	uc := interview.New(repository.NewMemory(), gemini, &mockTranscriber{}, nil, &mockDispatcher{})
	_, err := uc.Create(context.Background(), &interview.CreateInput{
		Role:   "backend engineer",
		Skills: []string{"go"},
	})
	gt.Error(t, err)
}

func seedCreated(t *testing.T, uc *interview.UseCase) *model.Interview {
	t.Helper()
	created := gt.R1(uc.Create(context.Background(), &interview.CreateInput{
		Role:   "backend engineer",
		Skills: []string{"go"},
	})).NoError(t)
	return created
}

func questionsGemini() *mockGemini {
	return &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(questionsJSON), nil
		},
	}
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	dispatcher := &mockDispatcher{}

	uc := interview.New(repo, questionsGemini(), &mockTranscriber{}, nil, dispatcher)
	created := seedCreated(t, uc)

	transcript := gt.R1(uc.SubmitAnswer(ctx, &interview.AnswerInput{
		InterviewID: created.ID,
		QuestionID:  created.Questions[0].ID,
		Audio:       []byte("audio-bytes"),
	})).NoError(t)

	gt.V(t, transcript.Status).Equal(model.EvaluationPending)
	gt.V(t, transcript.Answer).Equal("transcribed answer")

	gt.A(t, dispatcher.tasks).Length(1)
	gt.V(t, dispatcher.tasks[0].TranscriptID).Equal(transcript.ID)
	gt.V(t, dispatcher.tasks[0].Answer).Equal("transcribed answer")
}

func TestSubmitAnswerDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	uc := interview.New(repo, questionsGemini(), &mockTranscriber{}, nil, &mockDispatcher{})
	created := seedCreated(t, uc)

	input := &interview.AnswerInput{
		InterviewID: created.ID,
		QuestionID:  created.Questions[0].ID,
		Audio:       []byte("audio-bytes"),
	}
	_, err := uc.SubmitAnswer(ctx, input)
	gt.NoError(t, err)

	_, err = uc.SubmitAnswer(ctx, input)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrDuplicateAnswer)).True()
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	ctx := context.Background()
	uc := interview.New(repository.NewMemory(), questionsGemini(), &mockTranscriber{}, nil, &mockDispatcher{})
	created := seedCreated(t, uc)

	_, err := uc.SubmitAnswer(ctx, &interview.AnswerInput{
		InterviewID: created.ID,
		QuestionID:  model.NewQuestionID(),
		Audio:       []byte("audio-bytes"),
	})
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrNotFound)).True()
}

func TestSubmitAnswerTranscriptionFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	transcriber := &mockTranscriber{
		transcribeFunc: func(ctx context.Context, audio []byte) (string, error) {
			return "", goerr.New("speech service down")
		},
	}
	dispatcher := &mockDispatcher{}

	uc := interview.New(repo, questionsGemini(), transcriber, nil, dispatcher)
	created := seedCreated(t, uc)

	_, err := uc.SubmitAnswer(ctx, &interview.AnswerInput{
		InterviewID: created.ID,
		QuestionID:  created.Questions[0].ID,
		Audio:       []byte("audio-bytes"),
	})
	gt.Error(t, err)

	// Nothing recorded, nothing queued; the question remains answerable
	transcripts := gt.R1(repo.ListTranscripts(ctx, created.ID)).NoError(t)
	gt.A(t, transcripts).Length(0)
	gt.A(t, dispatcher.tasks).Length(0)
}

func TestSubmitAnswerDispatchFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	dispatcher := &mockDispatcher{err: goerr.New("queue is full")}

	uc := interview.New(repo, questionsGemini(), &mockTranscriber{}, nil, dispatcher)
	created := seedCreated(t, uc)

	_, err := uc.SubmitAnswer(ctx, &interview.AnswerInput{
		InterviewID: created.ID,
		QuestionID:  created.Questions[0].ID,
		Audio:       []byte("audio-bytes"),
	})
	gt.Error(t, err)

	// The transcript exists but is marked failed so pollers are not stuck
	transcripts := gt.R1(repo.ListTranscripts(ctx, created.ID)).NoError(t)
	gt.A(t, transcripts).Length(1)
	gt.V(t, transcripts[0].Status).Equal(model.EvaluationFailed)
}

func TestGetReport(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	extractor := &mockExtractor{}

	uc := interview.New(repo, questionsGemini(), &mockTranscriber{}, nil, &mockDispatcher{},
		interview.WithExtractor(extractor))
	created := seedCreated(t, uc)

	// Not ready yet
	_, err := uc.GetReport(ctx, created.ID, "user-1")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrReportNotReady)).True()
	gt.A(t, extractor.calls).Length(0)

	gt.NoError(t, repo.PutReport(ctx, &model.Report{
		ID:          model.NewReportID(),
		InterviewID: created.ID,
		Content:     "the report",
		CreatedAt:   time.Now(),
	}))

	report := gt.R1(uc.GetReport(ctx, created.ID, "user-1")).NoError(t)
	gt.V(t, report.Content).Equal("the report")
	gt.A(t, extractor.calls).Length(1)

	// Anonymous readers do not trigger extraction
	_ = gt.R1(uc.GetReport(ctx, created.ID, "")).NoError(t)
	gt.A(t, extractor.calls).Length(1)
}

func TestGetDetail(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	uc := interview.New(repo, questionsGemini(), &mockTranscriber{}, nil, &mockDispatcher{})
	created := seedCreated(t, uc)

	detail := gt.R1(uc.Get(ctx, created.ID)).NoError(t)
	gt.V(t, detail.Interview.ID).Equal(created.ID)
	gt.A(t, detail.Transcripts).Length(0)
	gt.B(t, detail.HasReport).False()

	_, err := uc.SubmitAnswer(ctx, &interview.AnswerInput{
		InterviewID: created.ID,
		QuestionID:  created.Questions[0].ID,
		Audio:       []byte("audio-bytes"),
	})
	gt.NoError(t, err)
	gt.NoError(t, repo.PutReport(ctx, &model.Report{
		ID:          model.NewReportID(),
		InterviewID: created.ID,
		Content:     "the report",
		CreatedAt:   time.Now(),
	}))

	detail = gt.R1(uc.Get(ctx, created.ID)).NoError(t)
	gt.A(t, detail.Transcripts).Length(1)
	gt.B(t, detail.HasReport).True()
}

func TestGetReportRetriesGeneration(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	var reportAttempts int
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			if config != nil && config.ResponseMIMEType == "application/json" {
				if strings.Contains(contents[0].Parts[0].Text, "interview questions") {
					return textResponse(`["Explain database indexing"]`), nil
				}
				return textResponse(`{"score": 75, "notes": "n", "strengths": "s", "improvements": "i"}`), nil
			}
			reportAttempts++
			if reportAttempts == 1 {
				return nil, goerr.New("generator unavailable")
			}
			return textResponse("Executive Summary: solid."), nil
		},
	}

	evaluator := evaluate.New(repo, gemini)
	dispatcher := &mockDispatcher{}
	uc := interview.New(repo, gemini, &mockTranscriber{}, nil, dispatcher,
		interview.WithCompletionChecker(evaluator))
	created := seedCreated(t, uc)
	gt.A(t, created.Questions).Length(1)

	_, err := uc.SubmitAnswer(ctx, &interview.AnswerInput{
		InterviewID: created.ID,
		QuestionID:  created.Questions[0].ID,
		Audio:       []byte("audio-bytes"),
	})
	gt.NoError(t, err)
	gt.NoError(t, evaluator.Evaluate(ctx, &dispatcher.tasks[0]))

	// The only generation attempt failed and released its claim; no further
	// evaluation will ever run for this interview
	stuck := gt.R1(repo.GetInterview(ctx, created.ID)).NoError(t)
	gt.V(t, stuck.Status).Equal(model.StatusInProgress)

	// Fetching the report re-runs completion detection and recovers
	report := gt.R1(uc.GetReport(ctx, created.ID, "")).NoError(t)
	gt.S(t, report.Content).Contains("Executive Summary")

	done := gt.R1(repo.GetInterview(ctx, created.ID)).NoError(t)
	gt.V(t, done.Status).Equal(model.StatusCompleted)
}

func TestGetReportRetryStillFailing(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	checker := &mockChecker{err: goerr.New("generator still down")}

	uc := interview.New(repo, questionsGemini(), &mockTranscriber{}, nil, &mockDispatcher{},
		interview.WithCompletionChecker(checker))
	created := seedCreated(t, uc)

	_, err := uc.GetReport(ctx, created.ID, "")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrReportNotReady)).True()
	gt.A(t, checker.calls).Length(1)

	// A stored report is served without re-running completion detection
	gt.NoError(t, repo.PutReport(ctx, &model.Report{
		ID:          model.NewReportID(),
		InterviewID: created.ID,
		Content:     "the report",
		CreatedAt:   time.Now(),
	}))
	_ = gt.R1(uc.GetReport(ctx, created.ID, "")).NoError(t)
	gt.A(t, checker.calls).Length(1)
}

func TestGetReportExtractionFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	extractor := &mockExtractor{err: goerr.New("index down")}

	uc := interview.New(repo, questionsGemini(), &mockTranscriber{}, nil, &mockDispatcher{},
		interview.WithExtractor(extractor))
	created := seedCreated(t, uc)

	gt.NoError(t, repo.PutReport(ctx, &model.Report{
		ID:          model.NewReportID(),
		InterviewID: created.ID,
		Content:     "the report",
		CreatedAt:   time.Now(),
	}))

	report := gt.R1(uc.GetReport(ctx, created.ID, "user-1")).NoError(t)
	gt.V(t, report.Content).Equal("the report")
}
