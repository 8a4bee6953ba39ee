package controller

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"intervue/internal/ai"
	"intervue/internal/speech"
	"intervue/internal/store"
	rabbit "intervue/pkg/rabbit/pkg"
)

// State of one interview run. Failed is absorbing; Completed is terminal.
type State string

const (
	StateInitializing     State = "initializing"
	StateAwaitingQuestion State = "awaiting-question"
	StateAwaitingAnswer   State = "awaiting-answer"
	StateScoring          State = "scoring"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// Notifier pushes progress events to the owning user's event stream.
type Notifier interface {
	Send(userID string, event map[string]interface{}) bool
}

// Deps are the collaborators one controller run owns or borrows. Adapter,
// Events and Rabbit may be nil; the loop degrades to text-only, silent
// operation.
type Deps struct {
	Gateway   ai.Gateway
	Sessions  store.ISession
	Responses store.IResponse
	Adapter   *speech.Adapter
	Events    Notifier
	Rabbit    rabbit.Rabbit
	Logger    *zap.Logger
}

// Controller drives one interview session from creation to completion:
// create session, request question, capture answer, score, advance, until
// the quota is reached. It holds the only live reference to the session
// and is never shared across concurrent runs.
type Controller struct {
	mu   sync.Mutex
	busy bool

	state          State
	session        *store.Session
	subjects       []string
	quota          int32
	questionNumber int32
	answered       int32
	current        string
	previous       []string

	deps Deps
}

func New(deps Deps) *Controller {
	if deps.Rabbit == nil {
		deps.Rabbit = &rabbit.Dummy{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Controller{
		state: StateInitializing,
		deps:  deps,
	}
}

// acquire takes the busy guard and checks the state machine is in one of
// the allowed states. Every public operation goes through it.
func (c *Controller) acquire(allowed ...State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return ErrBusy
	}
	for _, s := range allowed {
		if c.state == s {
			c.busy = true
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidState, "state is %s", c.state)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) release(next State) {
	c.mu.Lock()
	c.state = next
	c.busy = false
	c.mu.Unlock()
}

type BeginResult struct {
	SessionID       string
	Question        string
	QuestionNumber  int32
	TotalQuestions  int32
	QuestionPending bool
}

// Begin creates the session row and requests question #1. A store
// rejection is unrecoverable: the controller moves to Failed. A failed
// first generation leaves the run in AwaitingQuestion for a manual retry.
func (c *Controller) Begin(ctx context.Context, userID string, subjects []string, quota int32) (*BeginResult, error) {
	if err := c.acquire(StateInitializing); err != nil {
		return nil, err
	}

	session := &store.Session{
		ID:            uuid.New().String(),
		UserID:        userID,
		InterviewType: strings.Join(subjects, ", "),
		Status:        store.StatusInProgress,
		StartedAt:     time.Now().UTC(),
	}

	if err := c.deps.Sessions.Create(ctx, session); err != nil {
		c.deps.Logger.Error("Failed to create interview session", zap.Error(err))
		c.release(StateFailed)
		return nil, errors.Wrap(ErrSessionCreate, err.Error())
	}

	c.mu.Lock()
	c.session = session
	c.subjects = subjects
	c.quota = quota
	c.questionNumber = 1
	c.state = StateAwaitingQuestion
	c.mu.Unlock()

	c.deps.Logger.Info("Created interview session",
		zap.String("sessionId", session.ID),
		zap.Strings("subjects", subjects),
		zap.Int32("totalQuestions", quota))

	c.publishEvent(ctx, "session.started", session)

	result := &BeginResult{
		SessionID:      session.ID,
		QuestionNumber: 1,
		TotalQuestions: quota,
	}

	question, err := c.generateQuestion(ctx)
	if err != nil {
		c.release(StateAwaitingQuestion)
		result.QuestionPending = true
		return result, errors.Wrap(ErrQuestionGeneration, err.Error())
	}

	c.mu.Lock()
	c.current = question
	c.mu.Unlock()
	result.Question = question

	c.notify("question_ready", map[string]interface{}{"questionNumber": int32(1)})
	c.release(StateAwaitingAnswer)
	return result, nil
}

// RequestQuestion retries a generation that previously failed. No
// automatic retry or backoff exists anywhere; retries are user-initiated.
func (c *Controller) RequestQuestion(ctx context.Context) (string, error) {
	if err := c.acquire(StateAwaitingQuestion); err != nil {
		return "", err
	}

	question, err := c.generateQuestion(ctx)
	if err != nil {
		c.release(StateAwaitingQuestion)
		return "", errors.Wrap(ErrQuestionGeneration, err.Error())
	}

	c.mu.Lock()
	c.current = question
	number := c.questionNumber
	c.mu.Unlock()

	c.notify("question_ready", map[string]interface{}{"questionNumber": number})
	c.release(StateAwaitingAnswer)
	return question, nil
}

// generateQuestion calls the gateway with the active subject for the
// current question number and the full verbatim prior-question list. The
// generator is instructed, not guaranteed, to avoid repeats.
func (c *Controller) generateQuestion(ctx context.Context) (string, error) {
	c.mu.Lock()
	req := ai.QuestionRequest{
		Subject:           SubjectFor(c.subjects, c.quota, c.questionNumber),
		QuestionNumber:    c.questionNumber,
		TotalQuestions:    c.quota,
		PreviousQuestions: append([]string(nil), c.previous...),
	}
	c.mu.Unlock()

	question, err := c.deps.Gateway.GenerateQuestion(ctx, req)
	if err != nil {
		c.deps.Logger.Error("Failed to generate question",
			zap.String("subject", req.Subject),
			zap.Int32("questionNumber", req.QuestionNumber),
			zap.Error(err))
		return "", err
	}
	return question, nil
}

type SubmitResult struct {
	Score           int32
	Feedback        ai.Feedback
	Completed       bool
	NextQuestion    string
	NextNumber      int32
	QuestionPending bool
}

// SubmitAnswer scores the current answer, persists the response row and
// advances the run. An empty answer is rejected with no state change. A
// scoring or save failure returns the run to AwaitingAnswer so the user
// can retry the same submission.
func (c *Controller) SubmitAnswer(ctx context.Context, answer string) (*SubmitResult, error) {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil, ErrEmptyAnswer
	}

	if err := c.acquire(StateAwaitingAnswer); err != nil {
		return nil, err
	}
	c.setState(StateScoring)

	c.mu.Lock()
	question := c.current
	subject := SubjectFor(c.subjects, c.quota, c.questionNumber)
	sessionID := c.session.ID
	c.mu.Unlock()

	analysis, err := c.deps.Gateway.AnalyzeAnswer(ctx, ai.AnalyzeRequest{
		Question: question,
		Answer:   trimmed,
		Subject:  subject,
	})
	if err != nil {
		c.deps.Logger.Error("Failed to analyze answer", zap.String("sessionId", sessionID), zap.Error(err))
		c.release(StateAwaitingAnswer)
		return nil, errors.Wrap(ErrAnalysis, err.Error())
	}

	response := &store.Response{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		QuestionText: question,
		AnswerText:   trimmed,
		AIFeedback:   analysis.MarshalStored(),
		Score:        analysis.Score,
		CreatedAt:    time.Now().UTC(),
	}
	if err := c.deps.Responses.Create(ctx, response); err != nil {
		c.deps.Logger.Error("Failed to save response", zap.String("sessionId", sessionID), zap.Error(err))
		c.release(StateAwaitingAnswer)
		return nil, errors.Wrap(ErrResponseSave, err.Error())
	}

	c.mu.Lock()
	c.answered++
	c.previous = append(c.previous, question)
	answered := c.answered
	quota := c.quota
	c.mu.Unlock()

	c.deps.Logger.Info("Answer scored",
		zap.String("sessionId", sessionID),
		zap.Int32("score", analysis.Score),
		zap.Int32("answered", answered))
	c.notify("answer_scored", map[string]interface{}{
		"questionNumber": answered,
		"score":          analysis.Score,
	})

	result := &SubmitResult{
		Score:    analysis.Score,
		Feedback: analysis.Feedback,
	}

	if answered >= quota {
		c.complete(ctx)
		result.Completed = true
		c.release(StateCompleted)
		return result, nil
	}

	c.mu.Lock()
	c.questionNumber++
	c.current = ""
	result.NextNumber = c.questionNumber
	c.mu.Unlock()

	next, err := c.generateQuestion(ctx)
	if err != nil {
		// The submission itself succeeded; the user retries generation.
		result.QuestionPending = true
		c.release(StateAwaitingQuestion)
		return result, nil
	}

	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	result.NextQuestion = next

	c.notify("question_ready", map[string]interface{}{"questionNumber": result.NextNumber})
	c.release(StateAwaitingAnswer)
	return result, nil
}

// complete marks the session row completed. Persistence failure here is
// logged and swallowed: the run still ends, and the row stays visibly
// in-progress, a known benign inconsistency.
func (c *Controller) complete(ctx context.Context) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	completedAt := time.Now().UTC()
	if err := c.deps.Sessions.Complete(ctx, session.ID, completedAt); err != nil {
		c.deps.Logger.Error("Failed to mark session completed",
			zap.String("sessionId", session.ID), zap.Error(err))
	} else {
		c.mu.Lock()
		session.Status = store.StatusCompleted
		session.CompletedAt = &completedAt
		c.mu.Unlock()
	}

	c.deps.Logger.Info("Interview session completed", zap.String("sessionId", session.ID))
	c.publishEvent(ctx, "session.completed", session)
	c.notify("session_completed", nil)
}

// publishEvent sends a lifecycle event to the broker, best effort.
func (c *Controller) publishEvent(ctx context.Context, event string, session *store.Session) {
	body, err := json.Marshal(map[string]interface{}{
		"event":          event,
		"session_id":     session.ID,
		"user_id":        session.UserID,
		"interview_type": session.InterviewType,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := c.deps.Rabbit.Publish(ctx, body); err != nil {
		c.deps.Logger.Warn("Failed to publish lifecycle event",
			zap.String("event", event), zap.Error(err))
	}
}

func (c *Controller) notify(eventType string, payload map[string]interface{}) {
	if c.deps.Events == nil {
		return
	}
	event := map[string]interface{}{
		"type":      eventType,
		"sessionId": c.SessionID(),
		"timestamp": time.Now().Unix(),
	}
	for k, v := range payload {
		event[k] = v
	}
	c.deps.Events.Send(c.UserID(), event)
}

// Snapshot is the live view the session page renders from.
type Snapshot struct {
	SessionID      string   `json:"sessionId"`
	State          State    `json:"state"`
	Subjects       []string `json:"subjects"`
	Question       string   `json:"question"`
	QuestionNumber int32    `json:"questionNumber"`
	Answered       int32    `json:"answered"`
	TotalQuestions int32    `json:"totalQuestions"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:          c.state,
		Subjects:       append([]string(nil), c.subjects...),
		Question:       c.current,
		QuestionNumber: c.questionNumber,
		Answered:       c.answered,
		TotalQuestions: c.quota,
	}
	if c.session != nil {
		snap.SessionID = c.session.ID
	}
	return snap
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.ID
}

func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.UserID
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Adapter exposes the speech adapter owned by this run.
func (c *Controller) Adapter() *speech.Adapter {
	return c.deps.Adapter
}

// Teardown releases the run's audio resources. Safe to call multiple
// times; a pending network call that resolves afterwards is simply
// discarded with the controller instance.
func (c *Controller) Teardown() {
	if c.deps.Adapter != nil {
		c.deps.Adapter.Release()
	}
}
