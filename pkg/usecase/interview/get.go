package interview

import (
	"context"
	"errors"

	"github.com/voxmock/voxmock/pkg/model"
)

// Detail is an interview joined with its submitted transcripts and whether a
// report has been generated yet
type Detail struct {
	Interview   *model.Interview
	Transcripts []*model.Transcript
	HasReport   bool
}

// Get retrieves an interview with its questions, transcripts and report
// availability
func (uc *UseCase) Get(ctx context.Context, id model.InterviewID) (*Detail, error) {
	iv, err := uc.repo.GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}

	transcripts, err := uc.repo.ListTranscripts(ctx, id)
	if err != nil {
		return nil, err
	}

	hasReport := true
	if _, err := uc.repo.GetLatestReport(ctx, id); err != nil {
		if !errors.Is(err, model.ErrReportNotReady) {
			return nil, err
		}
		hasReport = false
	}

	return &Detail{
		Interview:   iv,
		Transcripts: transcripts,
		HasReport:   hasReport,
	}, nil
}
