package interview

import (
	"context"

	"github.com/voxmock/voxmock/pkg/model"
)

// GetEvaluation returns the transcript with its current evaluation state.
// Pending means the evaluation has not finished; failed is terminal.
func (uc *UseCase) GetEvaluation(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	return uc.repo.GetTranscript(ctx, id)
}
