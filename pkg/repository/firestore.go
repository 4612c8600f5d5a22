package repository

import (
	"context"
	"errors"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collInterviews = "interviews"
	collAnswers    = "answers" // per-interview answer slots, one per question
	collTranscript = "transcripts"
	collReports    = "reports"
	collMemories   = "memories"
	collAggregates = "aggregates"
)

// firestoreRepo implements Repository using Firestore
type firestoreRepo struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &firestoreRepo{client: client}, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (r *firestoreRepo) PutInterview(ctx context.Context, interview *model.Interview) error {
	ref := r.client.Collection(collInterviews).Doc(string(interview.ID))
	if _, err := ref.Set(ctx, interview); err != nil {
		return goerr.Wrap(err, "failed to save interview", goerr.Value("id", interview.ID))
	}
	return nil
}

func (r *firestoreRepo) GetInterview(ctx context.Context, id model.InterviewID) (*model.Interview, error) {
	doc, err := r.client.Collection(collInterviews).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(model.ErrNotFound, "interview not found", goerr.Value("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get interview", goerr.Value("id", id))
	}

	var interview model.Interview
	if err := doc.DataTo(&interview); err != nil {
		return nil, goerr.Wrap(err, "failed to decode interview", goerr.Value("id", id))
	}
	return &interview, nil
}

func (r *firestoreRepo) UpdateInterviewStatus(ctx context.Context, id model.InterviewID, expected, next model.InterviewStatus) error {
	if err := next.Validate(); err != nil {
		return err
	}

	ref := r.client.Collection(collInterviews).Doc(string(id))
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return goerr.Wrap(model.ErrNotFound, "interview not found", goerr.Value("id", id))
			}
			return err
		}

		var interview model.Interview
		if err := doc.DataTo(&interview); err != nil {
			return err
		}
		if interview.Status != expected {
			return goerr.Wrap(model.ErrAlreadyClaimed, "unexpected interview status",
				goerr.Value("id", id), goerr.Value("status", interview.Status))
		}

		return tx.Update(ref, []firestore.Update{{Path: "Status", Value: string(next)}})
	})
	if err != nil {
		if errors.Is(err, model.ErrAlreadyClaimed) || errors.Is(err, model.ErrNotFound) {
			return err
		}
		return goerr.Wrap(err, "failed to update interview status", goerr.Value("id", id))
	}
	return nil
}

func (r *firestoreRepo) CreateTranscript(ctx context.Context, transcript *model.Transcript) error {
	slotRef := r.client.Collection(collInterviews).
		Doc(string(transcript.InterviewID)).
		Collection(collAnswers).
		Doc(string(transcript.QuestionID))
	docRef := r.client.Collection(collTranscript).Doc(string(transcript.ID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(slotRef); err == nil {
			return goerr.Wrap(model.ErrDuplicateAnswer, "question already answered",
				goerr.Value("interview", transcript.InterviewID),
				goerr.Value("question", transcript.QuestionID))
		} else if !isNotFound(err) {
			return err
		}

		if err := tx.Create(slotRef, map[string]any{"TranscriptID": transcript.ID}); err != nil {
			return err
		}
		return tx.Create(docRef, transcript)
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateAnswer) {
			return err
		}
		return goerr.Wrap(err, "failed to create transcript", goerr.Value("id", transcript.ID))
	}
	return nil
}

func (r *firestoreRepo) GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	doc, err := r.client.Collection(collTranscript).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(model.ErrNotFound, "transcript not found", goerr.Value("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.Value("id", id))
	}

	var transcript model.Transcript
	if err := doc.DataTo(&transcript); err != nil {
		return nil, goerr.Wrap(err, "failed to decode transcript", goerr.Value("id", id))
	}
	return &transcript, nil
}

func (r *firestoreRepo) UpdateTranscript(ctx context.Context, transcript *model.Transcript) error {
	ref := r.client.Collection(collTranscript).Doc(string(transcript.ID))
	if _, err := ref.Set(ctx, transcript); err != nil {
		return goerr.Wrap(err, "failed to update transcript", goerr.Value("id", transcript.ID))
	}
	return nil
}

func (r *firestoreRepo) ListTranscripts(ctx context.Context, interviewID model.InterviewID) ([]*model.Transcript, error) {
	iter := r.client.Collection(collTranscript).
		Where("InterviewID", "==", string(interviewID)).
		Documents(ctx)
	defer iter.Stop()

	var transcripts []*model.Transcript
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list transcripts", goerr.Value("interview", interviewID))
		}

		var transcript model.Transcript
		if err := doc.DataTo(&transcript); err != nil {
			return nil, goerr.Wrap(err, "failed to decode transcript")
		}
		transcripts = append(transcripts, &transcript)
	}
	return transcripts, nil
}

func (r *firestoreRepo) PutReport(ctx context.Context, report *model.Report) error {
	ref := r.client.Collection(collReports).Doc(string(report.ID))
	if _, err := ref.Set(ctx, report); err != nil {
		return goerr.Wrap(err, "failed to save report", goerr.Value("id", report.ID))
	}
	return nil
}

func (r *firestoreRepo) GetLatestReport(ctx context.Context, interviewID model.InterviewID) (*model.Report, error) {
	// Ordering client-side avoids a composite index on (InterviewID, CreatedAt)
	iter := r.client.Collection(collReports).
		Where("InterviewID", "==", string(interviewID)).
		Documents(ctx)
	defer iter.Stop()

	var latest *model.Report
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list reports", goerr.Value("interview", interviewID))
		}

		var report model.Report
		if err := doc.DataTo(&report); err != nil {
			return nil, goerr.Wrap(err, "failed to decode report")
		}
		if latest == nil || report.CreatedAt.After(latest.CreatedAt) {
			latest = &report
		}
	}

	if latest == nil {
		return nil, goerr.Wrap(model.ErrReportNotReady, "no report for interview", goerr.Value("interview", interviewID))
	}
	return latest, nil
}

func (r *firestoreRepo) PutMemory(ctx context.Context, memory *model.MemoryRecord) error {
	ref := r.client.Collection(collMemories).Doc(string(memory.ID))
	if _, err := ref.Create(ctx, memory); err != nil {
		return goerr.Wrap(err, "failed to save memory", goerr.Value("id", memory.ID))
	}
	return nil
}

func (r *firestoreRepo) ListMemories(ctx context.Context, userID string, memoryType model.MemoryType, limit int) ([]*model.MemoryRecord, error) {
	iter := r.client.Collection(collMemories).
		Where("UserID", "==", userID).
		Where("Type", "==", string(memoryType)).
		Documents(ctx)
	defer iter.Stop()

	var memories []*model.MemoryRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list memories", goerr.Value("user", userID))
		}

		var memory model.MemoryRecord
		if err := doc.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory")
		}
		memories = append(memories, &memory)
	}

	sort.Slice(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}
	return memories, nil
}

func (r *firestoreRepo) PutUserAggregate(ctx context.Context, aggregate *model.UserAggregate) error {
	ref := r.client.Collection(collAggregates).Doc(aggregate.UserID)
	if _, err := ref.Set(ctx, aggregate); err != nil {
		return goerr.Wrap(err, "failed to save user aggregate", goerr.Value("user", aggregate.UserID))
	}
	return nil
}

func (r *firestoreRepo) GetUserAggregate(ctx context.Context, userID string) (*model.UserAggregate, error) {
	doc, err := r.client.Collection(collAggregates).Doc(userID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(model.ErrNotFound, "user aggregate not found", goerr.Value("user", userID))
		}
		return nil, goerr.Wrap(err, "failed to get user aggregate", goerr.Value("user", userID))
	}

	var aggregate model.UserAggregate
	if err := doc.DataTo(&aggregate); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user aggregate", goerr.Value("user", userID))
	}
	return &aggregate, nil
}

func (r *firestoreRepo) Close() error {
	return r.client.Close()
}
