package interview

import (
	"context"
	"errors"

	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

// GetReport returns the interview's report once generated, ErrReportNotReady
// before that. A missing report re-runs completion detection first: when
// generation for the final answer failed transiently and released its claim,
// a report fetch is the only remaining trigger. When a userID is given,
// delivering the report also feeds the interview into the user's long-term
// memory; extraction failures are logged and never block delivery.
func (uc *UseCase) GetReport(ctx context.Context, interviewID model.InterviewID, userID string) (*model.Report, error) {
	report, err := uc.repo.GetLatestReport(ctx, interviewID)
	if errors.Is(err, model.ErrReportNotReady) && uc.completion != nil {
		if retryErr := uc.completion.CheckCompletion(ctx, interviewID); retryErr != nil {
			logging.From(ctx).Warn("report generation retry failed",
				"error", retryErr, "interview", string(interviewID))
		}
		report, err = uc.repo.GetLatestReport(ctx, interviewID)
	}
	if err != nil {
		return nil, err
	}

	if uc.memory != nil && userID != "" {
		if err := uc.memory.ExtractFromReport(ctx, interviewID, userID); err != nil {
			logging.From(ctx).Warn("memory extraction failed",
				"error", err, "interview", string(interviewID), "user", userID)
		}
	}

	return report, nil
}
