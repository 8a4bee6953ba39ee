package store

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Session is one interview attempt. InterviewType holds the joined subject
// list; the core never deletes sessions.
type Session struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	InterviewType string     `json:"interview_type"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type ISession interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Complete(ctx context.Context, id string, completedAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*Session, error)
}

type restSession struct {
	client *client
}

func (r *restSession) Create(ctx context.Context, session *Session) error {
	var created []Session
	if err := r.client.do(ctx, http.MethodPost, "interview_sessions", nil, session, &created); err != nil {
		return err
	}
	if len(created) > 0 {
		*session = created[0]
	}
	return nil
}

func (r *restSession) Get(ctx context.Context, id string) (*Session, error) {
	query := url.Values{}
	query.Set("id", "eq."+id)
	query.Set("select", "*")

	var rows []Session
	if err := r.client.do(ctx, http.MethodGet, "interview_sessions", query, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Complete transitions the row to completed exactly once. Rows already
// completed are left untouched by the status filter.
func (r *restSession) Complete(ctx context.Context, id string, completedAt time.Time) error {
	query := url.Values{}
	query.Set("id", "eq."+id)
	query.Set("status", "eq."+StatusInProgress)

	patch := map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": completedAt.UTC().Format(time.RFC3339),
	}
	return r.client.do(ctx, http.MethodPatch, "interview_sessions", query, patch, nil)
}

func (r *restSession) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("order", "started_at.desc")
	query.Set("select", "*")

	var rows []Session
	if err := r.client.do(ctx, http.MethodGet, "interview_sessions", query, nil, &rows); err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, &rows[i])
	}
	return sessions, nil
}
