package controller

import (
	"sync"

	"go.uber.org/zap"
)

// Registry tracks the live controller for each active session. A session
// has at most one controller; removing it tears down the run's audio
// resources. Remove is idempotent so the navigate-away path and the
// completion path can both fire.
type Registry struct {
	controllers sync.Map // key: session ID, value: *Controller
	logger      *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

func (r *Registry) Register(c *Controller) {
	r.controllers.Store(c.SessionID(), c)
}

// Get returns the live controller for the session, enforcing that the
// caller owns it.
func (r *Registry) Get(sessionID, userID string) (*Controller, error) {
	val, ok := r.controllers.Load(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := val.(*Controller)
	if c.UserID() != userID {
		return nil, ErrNotOwner
	}
	return c, nil
}

func (r *Registry) Remove(sessionID string) {
	if val, ok := r.controllers.LoadAndDelete(sessionID); ok {
		c := val.(*Controller)
		c.Teardown()
		r.logger.Info("Released interview session", zap.String("sessionId", sessionID))
	}
}

// Shutdown tears down every live run.
func (r *Registry) Shutdown() {
	r.logger.Info("Shutting down session registry")
	r.controllers.Range(func(key, value interface{}) bool {
		value.(*Controller).Teardown()
		r.controllers.Delete(key)
		return true
	})
}
