package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/usecase/evaluate"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

// AnswerInput is one spoken answer to an interview question
type AnswerInput struct {
	InterviewID model.InterviewID
	QuestionID  model.QuestionID
	Audio       []byte
}

// SubmitAnswer transcribes the audio, records the transcript and queues it
// for evaluation. Each question accepts exactly one answer; a second
// submission fails with ErrDuplicateAnswer. The returned transcript is in
// pending state; callers poll GetEvaluation for the result.
func (uc *UseCase) SubmitAnswer(ctx context.Context, input *AnswerInput) (*model.Transcript, error) {
	if len(input.Audio) == 0 {
		return nil, goerr.New("audio is required")
	}

	logger := logging.From(ctx).With("interview", string(input.InterviewID))

	interview, err := uc.repo.GetInterview(ctx, input.InterviewID)
	if err != nil {
		return nil, err
	}
	if interview.Status == model.StatusCompleted {
		return nil, goerr.Wrap(model.ErrInvalidStatus, "interview already completed")
	}
	question := interview.QuestionByID(input.QuestionID)
	if question == nil {
		return nil, goerr.Wrap(model.ErrNotFound, "question not found", goerr.Value("question", input.QuestionID))
	}

	answer, err := uc.transcriber.Transcribe(ctx, input.Audio)
	if err != nil {
		return nil, goerr.Wrap(err, "transcription failed")
	}
	if answer == "" {
		return nil, goerr.New("transcription produced no text")
	}

	uc.archiveAudio(ctx, input)

	transcript := &model.Transcript{
		ID:          model.NewTranscriptID(),
		InterviewID: input.InterviewID,
		QuestionID:  input.QuestionID,
		Answer:      answer,
		Status:      model.EvaluationPending,
		CreatedAt:   time.Now(),
	}
	if err := uc.repo.CreateTranscript(ctx, transcript); err != nil {
		return nil, err
	}

	task := evaluate.Task{
		TranscriptID: transcript.ID,
		InterviewID:  transcript.InterviewID,
		QuestionID:   transcript.QuestionID,
		Answer:       transcript.Answer,
	}
	if err := uc.dispatcher.Dispatch(task); err != nil {
		// The transcript stays visible with a terminal state instead of
		// waiting forever on a task that was never queued
		transcript.Status = model.EvaluationFailed
		if updateErr := uc.repo.UpdateTranscript(ctx, transcript); updateErr != nil {
			logger.Error("failed to mark undispatched transcript", "error", updateErr)
		}
		return nil, goerr.Wrap(err, "failed to queue evaluation", goerr.Value("transcript", transcript.ID))
	}

	logger.Info("answer accepted", "transcript", string(transcript.ID), "question", string(input.QuestionID))
	return transcript, nil
}

// archiveAudio stores the raw audio for audit. Best effort: archive outages
// never block answer intake.
func (uc *UseCase) archiveAudio(ctx context.Context, input *AnswerInput) {
	if uc.archive == nil {
		return
	}

	logger := logging.From(ctx)
	key := fmt.Sprintf("interviews/%s/answers/%s.webm", input.InterviewID, input.QuestionID)

	w, err := uc.archive.Put(ctx, key, "audio/webm")
	if err != nil {
		logger.Warn("failed to open audio archive", "error", err, "key", key)
		return
	}
	if _, err := w.Write(input.Audio); err != nil {
		logger.Warn("failed to write audio archive", "error", err, "key", key)
		w.Close()
		return
	}
	if err := w.Close(); err != nil {
		logger.Warn("failed to finalize audio archive", "error", err, "key", key)
	}
}
