package evaluate

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/adapter"
	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/report.md
var reportPromptRaw string

var reportPromptTmpl = template.Must(template.New("report").Parse(reportPromptRaw))

type reportEntry struct {
	Question   string            `json:"question"`
	Answer     string            `json:"transcript"`
	Evaluation *model.Evaluation `json:"evaluation,omitempty"`
}

// generateReport synthesizes the narrative report and persists it. A failed
// or empty generation writes nothing.
func (e *Evaluator) generateReport(ctx context.Context, interview *model.Interview, transcripts []*model.Transcript) error {
	analysis := e.stopAnalysis(ctx, interview.ID)

	content, err := e.renderReport(ctx, interview, transcripts, analysis)
	if err != nil {
		return err
	}

	report := &model.Report{
		ID:          model.NewReportID(),
		InterviewID: interview.ID,
		Content:     content,
		Analysis:    analysis,
		CreatedAt:   time.Now(),
	}
	return e.repo.PutReport(ctx, report)
}

// stopAnalysis closes the analysis session and returns its summary, or nil
// when the service is absent or unreachable
func (e *Evaluator) stopAnalysis(ctx context.Context, interviewID model.InterviewID) *model.SessionAnalysis {
	if e.analysis == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.analysisTimeout)
	defer cancel()

	analysis, err := e.analysis.StopSession(ctx, interviewID)
	if err != nil {
		logging.From(ctx).Warn("could not stop analysis session", "error", err)
		return nil
	}
	return analysis
}

func (e *Evaluator) renderReport(ctx context.Context, interview *model.Interview, transcripts []*model.Transcript, analysis *model.SessionAnalysis) (string, error) {
	// Present answers in question order
	order := make(map[model.QuestionID]int, len(interview.Questions))
	text := make(map[model.QuestionID]string, len(interview.Questions))
	for _, q := range interview.Questions {
		order[q.ID] = q.Order
		text[q.ID] = q.Text
	}
	sorted := make([]*model.Transcript, len(transcripts))
	copy(sorted, transcripts)
	sort.Slice(sorted, func(i, j int) bool {
		return order[sorted[i].QuestionID] < order[sorted[j].QuestionID]
	})

	entries := make([]reportEntry, 0, len(sorted))
	for _, t := range sorted {
		entries = append(entries, reportEntry{
			Question:   text[t.QuestionID],
			Answer:     t.Answer,
			Evaluation: t.Evaluation,
		})
	}
	responses, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal report entries")
	}

	var buf bytes.Buffer
	if err := reportPromptTmpl.Execute(&buf, map[string]any{
		"Responses":       string(responses),
		"AnalysisSection": analysisSection(analysis),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to build report prompt")
	}

	genCtx, cancel := context.WithTimeout(ctx, e.reportTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}
	resp, err := e.gemini.GenerateContent(genCtx, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return "", goerr.Wrap(err, "report generation call failed")
	}

	content := adapter.ResponseText(resp)
	if content == "" {
		return "", goerr.New("empty report generated")
	}
	return content, nil
}

func analysisSection(analysis *model.SessionAnalysis) string {
	if analysis == nil {
		return ""
	}

	section := fmt.Sprintf("- Average Body Language Score: %.1f/100\n", analysis.BodyLanguageScore)
	section += fmt.Sprintf("- Average Voice Tone Score: %.1f/100\n", analysis.VoiceToneScore)
	section += fmt.Sprintf("- Overall Confidence Score: %.1f/100\n", analysis.CombinedScore)
	section += fmt.Sprintf("- Status: %s\n", analysis.OverallStatus)

	for i, qa := range analysis.QuestionAnalyses {
		section += fmt.Sprintf("\nQuestion %d:\n- Voice Tone: %.1f/100\n- Body Language: %.1f/100\n",
			i+1, qa.VoiceToneScore, qa.BodyLanguageScore)
	}
	return section
}
