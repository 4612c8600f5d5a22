package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/voxmock/voxmock/pkg/model"
	"github.com/voxmock/voxmock/pkg/usecase/interview"
)

type questionView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type interviewView struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Skills    []string       `json:"skills"`
	UserName  string         `json:"userName,omitempty"`
	Status    string         `json:"status"`
	Questions []questionView `json:"questions"`
	CreatedAt time.Time      `json:"createdAt"`
}

type interviewDetailView struct {
	interviewView
	Transcripts []*evaluationView `json:"transcripts"`
	HasReport   bool              `json:"hasReport"`
}

type evaluationView struct {
	TranscriptID      string            `json:"transcriptId"`
	QuestionID        string            `json:"questionId"`
	Answer            string            `json:"transcript"`
	Status            string            `json:"status"`
	Evaluation        *model.Evaluation `json:"evaluation,omitempty"`
	ResponseScore     float64           `json:"responseScore,omitempty"`
	VoiceToneScore    float64           `json:"voiceToneScore,omitempty"`
	BodyLanguageScore float64           `json:"bodyLanguageScore,omitempty"`
	FinalScore        float64           `json:"finalScore,omitempty"`
}

type reportView struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Analysis  *model.SessionAnalysis `json:"analysis,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

func toInterviewView(iv *model.Interview) *interviewView {
	questions := make([]questionView, 0, len(iv.Questions))
	for _, q := range iv.Questions {
		questions = append(questions, questionView{
			ID:    string(q.ID),
			Text:  q.Text,
			Order: q.Order,
		})
	}
	return &interviewView{
		ID:        string(iv.ID),
		Role:      iv.Role,
		Skills:    iv.Skills,
		UserName:  iv.UserName,
		Status:    string(iv.Status),
		Questions: questions,
		CreatedAt: iv.CreatedAt,
	}
}

func toEvaluationView(t *model.Transcript) *evaluationView {
	return &evaluationView{
		TranscriptID:      string(t.ID),
		QuestionID:        string(t.QuestionID),
		Answer:            t.Answer,
		Status:            string(t.Status),
		Evaluation:        t.Evaluation,
		ResponseScore:     t.ResponseScore,
		VoiceToneScore:    t.VoiceToneScore,
		BodyLanguageScore: t.BodyLanguageScore,
		FinalScore:        t.FinalScore,
	}
}

func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Role     string   `json:"role"`
		Skills   []string `json:"skills"`
		UserName string   `json:"userName"`
		UserID   string   `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	iv, err := s.uc.Create(ctx, &interview.CreateInput{
		Role:     req.Role,
		Skills:   req.Skills,
		UserName: req.UserName,
		UserID:   req.UserID,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toInterviewView(iv))
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := s.uc.Get(ctx, model.InterviewID(r.PathValue("id")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view := &interviewDetailView{
		interviewView: *toInterviewView(detail.Interview),
		Transcripts:   make([]*evaluationView, 0, len(detail.Transcripts)),
		HasReport:     detail.HasReport,
	}
	for _, transcript := range detail.Transcripts {
		view.Transcripts = append(view.Transcripts, toEvaluationView(transcript))
	}
	writeJSON(ctx, w, http.StatusOK, view)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		QuestionID  string `json:"questionId"`
		AudioBase64 string `json:"audioBase64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "audioBase64 is not valid base64"})
		return
	}
	if len(audio) == 0 {
		writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "audioBase64 is required"})
		return
	}
	if req.QuestionID == "" {
		writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "questionId is required"})
		return
	}

	transcript, err := s.uc.SubmitAnswer(ctx, &interview.AnswerInput{
		InterviewID: model.InterviewID(r.PathValue("id")),
		QuestionID:  model.QuestionID(req.QuestionID),
		Audio:       audio,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	// 202: the transcript exists but its evaluation runs asynchronously
	writeJSON(ctx, w, http.StatusAccepted, toEvaluationView(transcript))
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transcript, err := s.uc.GetEvaluation(ctx, model.TranscriptID(r.PathValue("id")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toEvaluationView(transcript))
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	interviewID := model.InterviewID(r.PathValue("id"))
	userID := r.URL.Query().Get("userId")

	report, err := s.uc.GetReport(ctx, interviewID, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, &reportView{
		ID:        string(report.ID),
		Content:   report.Content,
		Analysis:  report.Analysis,
		CreatedAt: report.CreatedAt,
	})
}
