package evaluate

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/adapter"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/repository"
	"github.com/voxmock/voxmock/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/evaluate.md
var evaluatePromptRaw string

var evaluatePromptTmpl = template.Must(template.New("evaluate").Parse(evaluatePromptRaw))

// evaluationSchema is the strict contract for the content evaluator. A
// response that violates it is a hard failure; scores are never guessed.
var evaluationSchema = mustResolve(&jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"score":        {Type: "number", Minimum: ptrFloat(0), Maximum: ptrFloat(100)},
		"notes":        {Type: "string"},
		"strengths":    {Type: "string"},
		"improvements": {Type: "string"},
	},
	Required: []string{"score", "notes", "strengths", "improvements"},
})

func ptrFloat(v float64) *float64 { return &v }

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}

// Task identifies one submitted answer awaiting evaluation
type Task struct {
	TranscriptID model.TranscriptID
	InterviewID  model.InterviewID
	QuestionID   model.QuestionID
	Answer       string
}

// Evaluator scores submitted answers and detects interview completion
type Evaluator struct {
	repo     repository.Repository
	gemini   adapter.Gemini
	analysis adapter.Analysis

	evaluatorTimeout time.Duration
	analysisTimeout  time.Duration
	reportTimeout    time.Duration
}

// Option is a functional option for Evaluator
type Option func(*Evaluator)

// WithAnalysis attaches the optional paralinguistic analysis service
func WithAnalysis(analysis adapter.Analysis) Option {
	return func(e *Evaluator) {
		e.analysis = analysis
	}
}

func WithEvaluatorTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.evaluatorTimeout = d
	}
}

func WithAnalysisTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.analysisTimeout = d
	}
}

// New creates a new Evaluator
func New(repo repository.Repository, gemini adapter.Gemini, opts ...Option) *Evaluator {
	e := &Evaluator{
		repo:             repo,
		gemini:           gemini,
		evaluatorTimeout: 60 * time.Second,
		analysisTimeout:  10 * time.Second,
		reportTimeout:    60 * time.Second,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate scores one answer and persists the result. On success it checks
// whether the interview is complete and, if so, generates the report.
// An error from this method means the evaluation itself failed and the
// transcript should be marked failed by the caller.
func (e *Evaluator) Evaluate(ctx context.Context, task *Task) error {
	logger := logging.From(ctx).With("transcript", string(task.TranscriptID))

	interview, err := e.repo.GetInterview(ctx, task.InterviewID)
	if err != nil {
		return err
	}
	question := interview.QuestionByID(task.QuestionID)
	if question == nil {
		return goerr.Wrap(model.ErrNotFound, "question not found", goerr.Value("question", task.QuestionID))
	}

	evaluation, err := e.evaluateContent(ctx, question.Text, task.Answer)
	if err != nil {
		return err
	}

	scores := e.signalScores(ctx, task)
	finalScore := model.WeightedFinalScore(evaluation.Score, scores.VoiceTone, scores.BodyLanguage)

	transcript, err := e.repo.GetTranscript(ctx, task.TranscriptID)
	if err != nil {
		return err
	}

	now := time.Now()
	transcript.Evaluation = evaluation
	transcript.ResponseScore = evaluation.Score
	transcript.VoiceToneScore = scores.VoiceTone
	transcript.BodyLanguageScore = scores.BodyLanguage
	transcript.FinalScore = finalScore
	transcript.Status = model.EvaluationCompleted
	transcript.EvaluatedAt = &now

	if err := e.repo.UpdateTranscript(ctx, transcript); err != nil {
		return err
	}

	logger.Info("answer evaluated",
		"interview", string(task.InterviewID),
		"final_score", finalScore)

	if err := e.CheckCompletion(ctx, task.InterviewID); err != nil {
		// The evaluation itself succeeded; the interview stays awaiting
		// report and the next trigger retries.
		logger.Warn("report generation failed", "error", err)
	}
	return nil
}

// MarkFailed records a terminal failed state on the transcript so that
// pollers can distinguish it from a pending evaluation.
func (e *Evaluator) MarkFailed(ctx context.Context, id model.TranscriptID) error {
	transcript, err := e.repo.GetTranscript(ctx, id)
	if err != nil {
		return err
	}
	if transcript.Status == model.EvaluationCompleted {
		return nil
	}
	transcript.Status = model.EvaluationFailed
	return e.repo.UpdateTranscript(ctx, transcript)
}

func (e *Evaluator) evaluateContent(ctx context.Context, question, answer string) (*model.Evaluation, error) {
	var buf bytes.Buffer
	if err := evaluatePromptTmpl.Execute(&buf, map[string]any{
		"Question": question,
		"Answer":   answer,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to build evaluation prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, e.evaluatorTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := e.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "content evaluator call failed")
	}

	raw := cleanJSONResponse(adapter.ResponseText(resp))
	if raw == "" {
		return nil, goerr.Wrap(model.ErrMalformedEvaluation, "empty evaluator response")
	}

	var value map[string]any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, goerr.Wrap(model.ErrMalformedEvaluation, "evaluator returned non-JSON",
			goerr.Value("response", raw))
	}
	if err := evaluationSchema.Validate(value); err != nil {
		return nil, goerr.Wrap(model.ErrMalformedEvaluation, "evaluator response violates contract",
			goerr.Value("cause", err.Error()))
	}

	var parsed struct {
		Score        float64 `json:"score"`
		Notes        string  `json:"notes"`
		Strengths    string  `json:"strengths"`
		Improvements string  `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, goerr.Wrap(model.ErrMalformedEvaluation, "failed to decode evaluator response")
	}

	return &model.Evaluation{
		Version:      model.EvaluationVersion,
		Score:        parsed.Score,
		Notes:        parsed.Notes,
		Strengths:    parsed.Strengths,
		Improvements: parsed.Improvements,
	}, nil
}

// signalScores fetches paralinguistic scores, degrading to defaults when the
// analysis service is absent or unreachable
func (e *Evaluator) signalScores(ctx context.Context, task *Task) adapter.AnalysisScores {
	scores := adapter.AnalysisScores{
		VoiceTone:    model.DefaultSignalScore,
		BodyLanguage: model.DefaultSignalScore,
	}
	if e.analysis == nil {
		return scores
	}

	ctx, cancel := context.WithTimeout(ctx, e.analysisTimeout)
	defer cancel()

	got, err := e.analysis.AnalyzeTranscript(ctx, task.InterviewID, task.Answer, task.QuestionID)
	if err != nil {
		logging.From(ctx).Warn("analysis unavailable, using default scores", "error", err)
		return scores
	}

	if got.VoiceTone > 0 {
		scores.VoiceTone = got.VoiceTone
	}
	if got.BodyLanguage > 0 {
		scores.BodyLanguage = got.BodyLanguage
	}
	return scores
}

// cleanJSONResponse strips markdown code fences around a JSON body
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
