package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"intervue/internal/ai"
	"intervue/internal/controller"
	"intervue/internal/store"
	"intervue/internal/utils/extractor"
)

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Dashboard aggregates the user's profile, history and practice stats.
// A missing profile row does not fail the view.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	identity, err := extractor.FromContext(ctx)
	if err != nil {
		return writeError(c, err)
	}

	sessions, err := h.store.Session.ListByUser(ctx, identity.UserID)
	if err != nil {
		return writeError(c, err)
	}

	profile, err := h.store.Profile.Get(ctx, identity.UserID)
	if err != nil {
		h.logger.Warn("Failed to load profile for dashboard",
			zap.String("userId", identity.UserID), zap.Error(err))
		profile = nil
	}

	stats := DashboardStats{TotalSessions: len(sessions)}

	var scoreSum int64
	var scoreCount int64
	scored := 0
	for _, session := range sessions {
		if session.Status != store.StatusCompleted {
			continue
		}
		stats.CompletedSessions++
		if session.CompletedAt != nil {
			stats.PracticeMinutes += int(session.CompletedAt.Sub(session.StartedAt).Minutes())
		}
		if scored >= statsSessionLimit {
			continue
		}
		scored++

		responses, err := h.store.Response.ListBySession(ctx, session.ID)
		if err != nil {
			h.logger.Warn("Failed to load responses for stats",
				zap.String("sessionId", session.ID), zap.Error(err))
			continue
		}
		for _, response := range responses {
			scoreSum += int64(response.Score)
			scoreCount++
		}
	}
	if scoreCount > 0 {
		stats.AverageScore = int32(scoreSum / scoreCount)
	}

	return c.JSON(http.StatusOK, DashboardResponse{
		Profile:  profile,
		Stats:    stats,
		Sessions: sessions,
	})
}

// Results renders a finished (or abandoned) session from its stored rows.
func (h *Handler) Results(c echo.Context) error {
	ctx := c.Request().Context()
	identity, err := extractor.FromContext(ctx)
	if err != nil {
		return writeError(c, err)
	}

	session, err := h.store.Session.Get(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if session.UserID != identity.UserID {
		return writeError(c, controller.ErrNotOwner)
	}

	rows, err := h.store.Response.ListBySession(ctx, session.ID)
	if err != nil {
		return writeError(c, err)
	}

	results := make([]QuestionResult, 0, len(rows))
	var scoreSum int64
	for _, row := range rows {
		results = append(results, QuestionResult{
			QuestionText: row.QuestionText,
			AnswerText:   row.AnswerText,
			Score:        row.Score,
			Feedback:     ai.ParseFeedback(row.AIFeedback),
		})
		scoreSum += int64(row.Score)
	}

	var average int32
	if len(rows) > 0 {
		average = int32(scoreSum / int64(len(rows)))
	}

	return c.JSON(http.StatusOK, ResultsResponse{
		Session:      session,
		Responses:    results,
		AverageScore: average,
	})
}

func (h *Handler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	identity, err := extractor.FromContext(ctx)
	if err != nil {
		return writeError(c, err)
	}

	profile, err := h.store.Profile.Get(ctx, identity.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	identity, err := extractor.FromContext(ctx)
	if err != nil {
		return writeError(c, err)
	}

	req := new(UpdateProfileRequest)
	if err := c.Bind(req); err != nil {
		return writeError(c, err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	profile := &store.Profile{
		ID:       identity.UserID,
		FullName: req.FullName,
		Email:    req.Email,
	}
	if err := h.store.Profile.Update(ctx, profile); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}
