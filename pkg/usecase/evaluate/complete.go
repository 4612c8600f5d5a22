package evaluate

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

// CheckCompletion triggers report generation when every question of the
// interview has a completed evaluation. The in_progress -> reporting claim is
// atomic, so concurrent completions of the last answers produce exactly one
// report; losers of the claim return without error.
func (e *Evaluator) CheckCompletion(ctx context.Context, interviewID model.InterviewID) error {
	logger := logging.From(ctx).With("interview", string(interviewID))

	interview, err := e.repo.GetInterview(ctx, interviewID)
	if err != nil {
		return err
	}
	if interview.Status == model.StatusCompleted {
		return nil
	}

	transcripts, err := e.repo.ListTranscripts(ctx, interviewID)
	if err != nil {
		return err
	}

	completed := 0
	for _, t := range transcripts {
		if t.Status == model.EvaluationCompleted {
			completed++
		}
	}
	if completed != len(interview.Questions) {
		return nil
	}

	if err := e.repo.UpdateInterviewStatus(ctx, interviewID, model.StatusInProgress, model.StatusReporting); err != nil {
		if errors.Is(err, model.ErrAlreadyClaimed) {
			logger.Debug("report generation already claimed")
			return nil
		}
		return err
	}

	if err := e.generateReport(ctx, interview, transcripts); err != nil {
		// Release the claim so a later trigger can retry
		if revertErr := e.repo.UpdateInterviewStatus(ctx, interviewID, model.StatusReporting, model.StatusInProgress); revertErr != nil {
			logger.Error("failed to release reporting claim", "error", revertErr)
		}
		return goerr.Wrap(err, "failed to generate report", goerr.Value("interview", interviewID))
	}

	if err := e.repo.UpdateInterviewStatus(ctx, interviewID, model.StatusReporting, model.StatusCompleted); err != nil {
		return err
	}

	logger.Info("interview completed, report generated")
	return nil
}
