package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"intervue/internal/ai"
	"intervue/internal/controller"
	"intervue/internal/speech"
	"intervue/internal/store"
	"intervue/internal/utils/extractor"
)

type StartInterviewResponse struct {
	SessionID       string `json:"sessionId"`
	Question        string `json:"question,omitempty"`
	QuestionNumber  int32  `json:"questionNumber"`
	TotalQuestions  int32  `json:"totalQuestions"`
	QuestionPending bool   `json:"questionPending,omitempty"`
}

type QuestionResponse struct {
	Question       string `json:"question"`
	QuestionNumber int32  `json:"questionNumber"`
}

type SubmitAnswerResponse struct {
	Score           int32       `json:"score"`
	Feedback        ai.Feedback `json:"feedback"`
	Completed       bool        `json:"completed"`
	NextQuestion    string      `json:"nextQuestion,omitempty"`
	NextNumber      int32       `json:"nextNumber,omitempty"`
	QuestionPending bool        `json:"questionPending,omitempty"`
}

type CaptureStopResponse struct {
	Audio string `json:"audio"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

type SpeakResponse struct {
	Audio string `json:"audio"`
}

type QuestionResult struct {
	QuestionText string      `json:"questionText"`
	AnswerText   string      `json:"answerText"`
	Score        int32       `json:"score"`
	Feedback     ai.Feedback `json:"feedback"`
}

type ResultsResponse struct {
	Session      *store.Session   `json:"session"`
	Responses    []QuestionResult `json:"responses"`
	AverageScore int32            `json:"averageScore"`
}

type DashboardStats struct {
	TotalSessions     int   `json:"totalSessions"`
	CompletedSessions int   `json:"completedSessions"`
	PracticeMinutes   int   `json:"practiceMinutes"`
	AverageScore      int32 `json:"averageScore"`
}

type DashboardResponse struct {
	Profile  *store.Profile   `json:"profile,omitempty"`
	Stats    DashboardStats   `json:"stats"`
	Sessions []*store.Session `json:"sessions"`
}

// writeError maps domain errors onto HTTP statuses. Unrecognized errors
// are treated as internal.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, extractor.ErrMissingToken), errors.Is(err, extractor.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, controller.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, controller.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, controller.ErrBusy), errors.Is(err, controller.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, controller.ErrEmptyAnswer),
		errors.Is(err, speech.ErrNoActiveStream),
		errors.Is(err, speech.ErrNoRecording):
		status = http.StatusBadRequest
	case errors.Is(err, controller.ErrSessionCreate),
		errors.Is(err, controller.ErrQuestionGeneration),
		errors.Is(err, controller.ErrAnalysis),
		errors.Is(err, controller.ErrResponseSave),
		errors.Is(err, speech.ErrSynthesis),
		errors.Is(err, speech.ErrTranscription):
		status = http.StatusBadGateway
	}

	return c.JSON(status, map[string]string{"error": err.Error()})
}
