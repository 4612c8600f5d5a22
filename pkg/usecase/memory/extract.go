package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/adapter"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/repository"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

const reportSummaryLimit = 500

// Extractor distills finished interviews into durable per-user memories:
// weakness and strength notes, a report summary vector, and the rolled-up
// aggregate used to seed future interviews.
type Extractor struct {
	repo       repository.Repository
	gemini     adapter.Gemini
	index      adapter.VectorIndex
	classifier TopicClassifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ExtractorOption is a functional option for Extractor
type ExtractorOption func(*Extractor)

// WithClassifier replaces the default keyword topic classifier
func WithClassifier(c TopicClassifier) ExtractorOption {
	return func(e *Extractor) {
		e.classifier = c
	}
}

// NewExtractor creates a new Extractor
func NewExtractor(repo repository.Repository, gemini adapter.Gemini, index adapter.VectorIndex, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		repo:       repo,
		gemini:     gemini,
		index:      index,
		classifier: NewKeywordClassifier(nil),
		locks:      map[string]*sync.Mutex{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// userLock serializes extraction per user so concurrent interviews cannot
// interleave aggregate writes
func (e *Extractor) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

type scoredNote struct {
	topic string
	text  string
	score float64
}

// ExtractFromReport reads the interview's latest report and completed
// evaluations and writes memory records, index points and the user aggregate.
// It is a no-op when no report exists yet. Re-running it for the same
// interview appends duplicate notes; callers gate it behind report delivery.
func (e *Extractor) ExtractFromReport(ctx context.Context, interviewID model.InterviewID, userID string) error {
	if userID == "" {
		return goerr.New("memory extraction requires userID")
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger := logging.From(ctx).With("interview", string(interviewID), "user", userID)

	report, err := e.repo.GetLatestReport(ctx, interviewID)
	if err != nil {
		if errors.Is(err, model.ErrReportNotReady) {
			logger.Debug("no report yet, skipping memory extraction")
			return nil
		}
		return err
	}

	interview, err := e.repo.GetInterview(ctx, interviewID)
	if err != nil {
		return err
	}
	transcripts, err := e.repo.ListTranscripts(ctx, interviewID)
	if err != nil {
		return err
	}

	questionText := make(map[model.QuestionID]string, len(interview.Questions))
	for _, q := range interview.Questions {
		questionText[q.ID] = q.Text
	}

	var sum float64
	var scored int
	var weaknesses, strengths []scoredNote
	for _, t := range transcripts {
		if t.Status != model.EvaluationCompleted || t.Evaluation == nil {
			continue
		}
		sum += t.FinalScore
		scored++

		kind, notable := model.ClassifyScore(t.FinalScore)
		if !notable {
			continue
		}

		topic := e.classifier.Classify(questionText[t.QuestionID])
		note := scoredNote{topic: topic, score: t.FinalScore}
		switch kind {
		case model.MemoryWeakness:
			note.text = fmt.Sprintf("Weakness in %s: %s", topic, t.Evaluation.Improvements)
			weaknesses = append(weaknesses, note)
		case model.MemoryStrength:
			note.text = fmt.Sprintf("Strength in %s: %s", topic, t.Evaluation.Strengths)
			strengths = append(strengths, note)
		}

		if err := e.storeNote(ctx, userID, kind, note, questionText[t.QuestionID]); err != nil {
			return err
		}
	}

	if scored == 0 {
		logger.Warn("no completed evaluations, skipping memory extraction")
		return nil
	}
	avgScore := sum / float64(scored)

	if err := e.storeSummary(ctx, userID, interviewID, report, avgScore); err != nil {
		return err
	}

	aggregate := &model.UserAggregate{
		UserID:        userID,
		AvgScore:      avgScore,
		Strengths:     uniqueTopics(strengths),
		Weaknesses:    uniqueTopics(weaknesses),
		LastInterview: time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := e.repo.PutUserAggregate(ctx, aggregate); err != nil {
		return err
	}

	logger.Info("memory extracted",
		"avg_score", avgScore,
		"weaknesses", len(weaknesses),
		"strengths", len(strengths))
	return nil
}

func (e *Extractor) storeNote(ctx context.Context, userID string, kind model.MemoryType, note scoredNote, question string) error {
	vector, err := e.gemini.Embedding(ctx, note.text)
	if err != nil {
		return goerr.Wrap(err, "failed to embed memory note")
	}

	pointID := adapter.NewPointID(userID, string(kind))
	record := &model.MemoryRecord{
		ID:        model.NewMemoryID(),
		UserID:    userID,
		Type:      kind,
		Content:   note.text,
		Topic:     note.topic,
		Score:     note.score,
		Question:  question,
		PointID:   pointID,
		CreatedAt: time.Now(),
	}
	if err := e.repo.PutMemory(ctx, record); err != nil {
		return err
	}

	return e.index.Upsert(ctx, &adapter.VectorPoint{
		ID:     pointID,
		Vector: vector,
		Payload: adapter.VectorPayload{
			UserID: userID,
			Type:   string(kind),
			Text:   note.text,
			Topic:  note.topic,
			Score:  note.score,
		},
	})
}

func (e *Extractor) storeSummary(ctx context.Context, userID string, interviewID model.InterviewID, report *model.Report, avgScore float64) error {
	content := report.Content
	if len(content) > reportSummaryLimit {
		content = content[:reportSummaryLimit]
	}
	text := fmt.Sprintf("Interview summary: Average score %.1f. %s", avgScore, content)

	vector, err := e.gemini.Embedding(ctx, text)
	if err != nil {
		return goerr.Wrap(err, "failed to embed interview summary")
	}

	pointID := adapter.NewPointID(userID, string(model.MemorySummary))
	record := &model.MemoryRecord{
		ID:        model.NewMemoryID(),
		UserID:    userID,
		Type:      model.MemorySummary,
		Content:   text,
		Score:     avgScore,
		PointID:   pointID,
		CreatedAt: time.Now(),
	}
	if err := e.repo.PutMemory(ctx, record); err != nil {
		return err
	}

	return e.index.Upsert(ctx, &adapter.VectorPoint{
		ID:     pointID,
		Vector: vector,
		Payload: adapter.VectorPayload{
			UserID:      userID,
			Type:        string(model.MemorySummary),
			Text:        text,
			InterviewID: string(interviewID),
			AvgScore:    avgScore,
			Timestamp:   time.Now().Format(time.RFC3339),
		},
	})
}

func uniqueTopics(notes []scoredNote) []string {
	seen := map[string]bool{}
	topics := []string{}
	for _, n := range notes {
		if seen[n.topic] {
			continue
		}
		seen[n.topic] = true
		topics = append(topics, n.topic)
	}
	return topics
}
