package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"intervue/internal/ai"
	"intervue/internal/controller"
	"intervue/internal/speech"
	"intervue/internal/store"
	"intervue/internal/utils/extractor"
	logging "intervue/pkg/logger/pkg"
	rabbit "intervue/pkg/rabbit/pkg"
)

const defaultQuota int32 = 5

// quotaFromConfig allows the deployment to override the default question
// count; requests may still override per session within the validated cap.
func quotaFromConfig() int32 {
	if q := viper.GetInt32("interview.default_questions"); q > 0 {
		return q
	}
	return defaultQuota
}

// averages on the dashboard are computed over at most this many recent
// completed sessions to bound the fan-out of row reads.
const statsSessionLimit = 20

// Handler owns the HTTP surface. Every interview route resolves the live
// controller through the registry; rows are read directly from the store
// for the passive views (dashboard, results, profile).
type Handler struct {
	registry  *controller.Registry
	store     *store.Store
	gateway   ai.Gateway
	redis     *redis.Client
	rabbit    rabbit.Rabbit
	events    controller.Notifier
	extractor extractor.Extractor
	voice     string
	logger    *zap.Logger
}

type Options struct {
	Registry  *controller.Registry
	Store     *store.Store
	Gateway   ai.Gateway
	Redis     *redis.Client
	Rabbit    rabbit.Rabbit
	Events    controller.Notifier
	Extractor extractor.Extractor
	Voice     string
	Logger    *zap.Logger
}

func New(opts Options) *Handler {
	return &Handler{
		registry:  opts.Registry,
		store:     opts.Store,
		gateway:   opts.Gateway,
		redis:     opts.Redis,
		rabbit:    opts.Rabbit,
		events:    opts.Events,
		extractor: opts.Extractor,
		voice:     opts.Voice,
		logger:    opts.Logger,
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	e.GET("/healthz", h.Health)

	api := e.Group("/api", h.authenticate)
	api.GET("/dashboard", h.Dashboard)
	api.GET("/events", h.Events)
	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdateProfile)
	api.GET("/results/:id", h.Results)

	api.POST("/interviews", h.StartInterview)
	api.GET("/interviews/:id", h.GetInterview)
	api.DELETE("/interviews/:id", h.AbandonInterview)
	api.POST("/interviews/:id/question", h.RequestQuestion)
	api.POST("/interviews/:id/answers", h.SubmitAnswer)
	api.POST("/interviews/:id/capture/start", h.StartCapture)
	api.POST("/interviews/:id/capture/chunks", h.AppendChunk)
	api.POST("/interviews/:id/capture/stop", h.StopCapture)
	api.POST("/interviews/:id/transcribe", h.Transcribe)
	api.POST("/interviews/:id/speak", h.Speak)
}

// authenticate verifies the bearer token and threads the caller identity
// and request id through the request context.
func (h *Handler) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := h.extractor.FromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return writeError(c, err)
		}

		ctx := extractor.WithIdentity(c.Request().Context(), identity)
		if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
			ctx = logging.WithRequestID(ctx, reqID)
		}
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) StartInterview(c echo.Context) error {
	ctx := c.Request().Context()
	identity, err := extractor.FromContext(ctx)
	if err != nil {
		return writeError(c, err)
	}

	req := new(StartInterviewRequest)
	if err := c.Bind(req); err != nil {
		return writeError(c, err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	quota := req.TotalQuestions
	if quota == 0 {
		quota = quotaFromConfig()
	}

	sink := speech.NewBufferSink()
	adapter := speech.NewAdapter(
		h.gateway,
		h.gateway,
		sink,
		speech.NewCache(h.redis, h.voice),
		h.logger,
	)

	ctrl := controller.New(controller.Deps{
		Gateway:   h.gateway,
		Sessions:  h.store.Session,
		Responses: h.store.Response,
		Adapter:   adapter,
		Events:    h.events,
		Rabbit:    h.rabbit,
		Logger:    logging.Logger(ctx),
	})

	result, err := ctrl.Begin(ctx, identity.UserID, req.Subjects, quota)
	if result == nil {
		return writeError(c, err)
	}

	// The session row exists; a failed first generation still yields a
	// live run the user can retry from.
	h.registry.Register(ctrl)

	return c.JSON(http.StatusCreated, StartInterviewResponse{
		SessionID:       result.SessionID,
		Question:        result.Question,
		QuestionNumber:  result.QuestionNumber,
		TotalQuestions:  result.TotalQuestions,
		QuestionPending: result.QuestionPending,
	})
}

func (h *Handler) resolve(c echo.Context) (*controller.Controller, error) {
	identity, err := extractor.FromContext(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return h.registry.Get(c.Param("id"), identity.UserID)
}

func (h *Handler) GetInterview(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) AbandonInterview(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}
	h.registry.Remove(ctrl.SessionID())
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RequestQuestion(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}

	question, err := ctrl.RequestQuestion(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, QuestionResponse{
		Question:       question,
		QuestionNumber: ctrl.Snapshot().QuestionNumber,
	})
}

func (h *Handler) SubmitAnswer(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}

	req := new(SubmitAnswerRequest)
	if err := c.Bind(req); err != nil {
		return writeError(c, err)
	}

	result, err := ctrl.SubmitAnswer(c.Request().Context(), req.Answer)
	if err != nil {
		return writeError(c, err)
	}

	if result.Completed {
		h.registry.Remove(ctrl.SessionID())
	}

	return c.JSON(http.StatusOK, SubmitAnswerResponse{
		Score:           result.Score,
		Feedback:        result.Feedback,
		Completed:       result.Completed,
		NextQuestion:    result.NextQuestion,
		NextNumber:      result.NextNumber,
		QuestionPending: result.QuestionPending,
	})
}

func (h *Handler) StartCapture(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}

	req := new(CaptureStartRequest)
	if err := c.Bind(req); err != nil {
		return writeError(c, err)
	}

	if err := ctrl.Adapter().StartCapture(req.StreamID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AppendChunk(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}

	req := new(CaptureChunkRequest)
	if err := c.Bind(req); err != nil {
		return writeError(c, err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	chunk, err := decodeBase64(req.Chunk)
	if err != nil {
		return writeError(c, err)
	}
	if err := ctrl.Adapter().AppendChunk(chunk); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) StopCapture(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}

	audio, err := ctrl.Adapter().StopCapture()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CaptureStopResponse{Audio: audio})
}

func (h *Handler) Transcribe(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}

	req := new(TranscribeRequest)
	if err := c.Bind(req); err != nil {
		return writeError(c, err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	text, err := ctrl.Adapter().Transcribe(c.Request().Context(), req.Audio)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, TranscribeResponse{Text: text})
}

// Speak synthesizes the current question and returns the audio. A request
// that arrives while a previous one is still playing gets 202 and no
// audio; the caller simply keeps the playback it already has.
func (h *Handler) Speak(c echo.Context) error {
	ctrl, err := h.resolve(c)
	if err != nil {
		return writeError(c, err)
	}

	question := ctrl.Snapshot().Question
	if question == "" {
		return writeError(c, controller.ErrInvalidState)
	}

	spoke, err := ctrl.Adapter().Speak(c.Request().Context(), question)
	if err != nil {
		return writeError(c, err)
	}
	if !spoke {
		return c.NoContent(http.StatusAccepted)
	}

	var audio []byte
	if sink, ok := ctrl.Adapter().Sink().(*speech.BufferSink); ok {
		audio = sink.Last()
	}
	return c.JSON(http.StatusOK, SpeakResponse{Audio: encodeBase64(audio)})
}
