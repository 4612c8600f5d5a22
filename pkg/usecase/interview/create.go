package interview

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/adapter"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/questions.md
var questionsPromptRaw string

var questionsPromptTmpl = template.Must(template.New("questions").Parse(questionsPromptRaw))

// CreateInput is the request to start a new interview
type CreateInput struct {
	Role     string
	Skills   []string
	UserName string
	UserID   string
}

// Create generates interview questions and persists a new in-progress
// interview. For a returning user the questions are biased toward their
// recorded weaknesses; context assembly failures fall back to generic
// questions. Question generation failure fails the creation.
func (uc *UseCase) Create(ctx context.Context, input *CreateInput) (*model.Interview, error) {
	if input.Role == "" {
		return nil, goerr.New("role is required")
	}
	if len(input.Skills) == 0 {
		return nil, goerr.New("at least one skill is required")
	}

	logger := logging.From(ctx)

	var contextText string
	if uc.builder != nil && input.UserID != "" {
		history, err := uc.builder.Build(ctx, input.UserID, input.Skills)
		if err != nil {
			logger.Warn("failed to build interview context", "error", err, "user", input.UserID)
		} else if history != nil {
			contextText = history.Text
		}
	}

	questions, err := uc.generateQuestions(ctx, input.Role, input.Skills, contextText)
	if err != nil {
		return nil, err
	}

	interview := &model.Interview{
		ID:        model.NewInterviewID(),
		Role:      input.Role,
		Skills:    input.Skills,
		UserName:  input.UserName,
		UserID:    input.UserID,
		Status:    model.StatusInProgress,
		Questions: questions,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.PutInterview(ctx, interview); err != nil {
		return nil, err
	}

	if uc.analysis != nil {
		if err := uc.analysis.StartSession(ctx, interview.ID); err != nil {
			logger.Warn("failed to start analysis session", "error", err, "interview", string(interview.ID))
		}
	}

	logger.Info("interview created",
		"interview", string(interview.ID),
		"role", input.Role,
		"questions", len(questions),
		"personalized", contextText != "")
	return interview, nil
}

func (uc *UseCase) generateQuestions(ctx context.Context, role string, skills []string, contextText string) ([]*model.Question, error) {
	var buf bytes.Buffer
	if err := questionsPromptTmpl.Execute(&buf, map[string]any{
		"Role":    role,
		"Skills":  strings.Join(skills, ", "),
		"Context": contextText,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to build question prompt")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := uc.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "question generation call failed")
	}

	raw := stripCodeFence(adapter.ResponseText(resp))
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, goerr.Wrap(err, "question generator returned invalid JSON", goerr.Value("response", raw))
	}
	if len(texts) == 0 {
		return nil, goerr.New("question generator returned no questions")
	}

	questions := make([]*model.Question, 0, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		questions = append(questions, &model.Question{
			ID:    model.NewQuestionID(),
			Text:  text,
			Order: i,
		})
	}
	if len(questions) == 0 {
		return nil, goerr.New("question generator returned only empty questions")
	}
	return questions, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
