package store

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Response is one answered question. Rows are append-only: the interview
// flow never edits or deletes them.
type Response struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	QuestionText string    `json:"question_text"`
	AnswerText   string    `json:"answer_text"`
	AIFeedback   string    `json:"ai_feedback"`
	Score        int32     `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}

type IResponse interface {
	Create(ctx context.Context, response *Response) error
	ListBySession(ctx context.Context, sessionID string) ([]*Response, error)
}

type restResponse struct {
	client *client
}

func (r *restResponse) Create(ctx context.Context, response *Response) error {
	var created []Response
	if err := r.client.do(ctx, http.MethodPost, "interview_responses", nil, response, &created); err != nil {
		return err
	}
	if len(created) > 0 {
		*response = created[0]
	}
	return nil
}

func (r *restResponse) ListBySession(ctx context.Context, sessionID string) ([]*Response, error) {
	query := url.Values{}
	query.Set("session_id", "eq."+sessionID)
	query.Set("order", "created_at.asc")
	query.Set("select", "*")

	var rows []Response
	if err := r.client.do(ctx, http.MethodGet, "interview_responses", query, nil, &rows); err != nil {
		return nil, err
	}

	responses := make([]*Response, 0, len(rows))
	for i := range rows {
		responses = append(responses, &rows[i])
	}
	return responses, nil
}
