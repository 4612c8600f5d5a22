package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/voxmock/voxmock/pkg/adapter"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/repository"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

const (
	recentWeaknessLimit = 5
	similarPastLimit    = 3
)

// InterviewContext carries a user's performance history into question
// generation. Text is a prompt-ready rendering of the structured fields.
type InterviewContext struct {
	Text        string
	Aggregate   *model.UserAggregate
	Weaknesses  []*model.MemoryRecord
	SimilarPast []*adapter.VectorMatch
}

// Builder assembles interview context from stored memories
type Builder struct {
	repo   repository.Repository
	gemini adapter.Gemini
	index  adapter.VectorIndex
}

// NewBuilder creates a new context Builder
func NewBuilder(repo repository.Repository, gemini adapter.Gemini, index adapter.VectorIndex) *Builder {
	return &Builder{
		repo:   repo,
		gemini: gemini,
		index:  index,
	}
}

// Build returns the personalization context for a user, or (nil, nil) for a
// user with no history. Failures of the memory or similarity lookups degrade
// to a context built from whatever was retrieved; only a missing aggregate
// means no context.
func (b *Builder) Build(ctx context.Context, userID string, skills []string) (*InterviewContext, error) {
	logger := logging.From(ctx).With("user", userID)

	aggregate, err := b.repo.GetUserAggregate(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	weaknesses, err := b.repo.ListMemories(ctx, userID, model.MemoryWeakness, recentWeaknessLimit)
	if err != nil {
		logger.Warn("failed to list weakness memories", "error", err)
		weaknesses = nil
	}

	similar := b.searchSimilar(ctx, userID, skills)

	return &InterviewContext{
		Text:        buildContextText(aggregate, weaknesses),
		Aggregate:   aggregate,
		Weaknesses:  weaknesses,
		SimilarPast: similar,
	}, nil
}

func (b *Builder) searchSimilar(ctx context.Context, userID string, skills []string) []*adapter.VectorMatch {
	logger := logging.From(ctx).With("user", userID)

	query := "User needs practice in: " + strings.Join(skills, ", ")
	vector, err := b.gemini.Embedding(ctx, query)
	if err != nil {
		logger.Warn("failed to embed context query", "error", err)
		return nil
	}

	matches, err := b.index.Search(ctx, vector, userID, similarPastLimit)
	if err != nil {
		logger.Warn("similarity search failed", "error", err)
		return nil
	}
	return matches
}

func buildContextText(aggregate *model.UserAggregate, weaknesses []*model.MemoryRecord) string {
	var sb strings.Builder
	sb.WriteString("User Performance History:\n")
	fmt.Fprintf(&sb, "- Average Score: %.1f/100\n", aggregate.AvgScore)
	fmt.Fprintf(&sb, "- Strengths: %s\n", topicList(aggregate.Strengths))
	fmt.Fprintf(&sb, "- Weaknesses: %s\n\n", topicList(aggregate.Weaknesses))

	if len(weaknesses) > 0 {
		sb.WriteString("Recent Areas Needing Improvement:\n")
		for _, w := range weaknesses {
			fmt.Fprintf(&sb, "- %s\n", w.Content)
		}
	}

	return sb.String()
}

func topicList(topics []string) string {
	if len(topics) == 0 {
		return "none"
	}
	return strings.Join(topics, ", ")
}
