package store

import (
	"context"
	"net/http"
	"net/url"
)

// Profile is the user-editable identity row; the interview loop itself
// never touches it.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
}

type IProfile interface {
	Get(ctx context.Context, id string) (*Profile, error)
	Update(ctx context.Context, profile *Profile) error
}

type restProfile struct {
	client *client
}

func (r *restProfile) Get(ctx context.Context, id string) (*Profile, error) {
	query := url.Values{}
	query.Set("id", "eq."+id)
	query.Set("select", "*")

	var rows []Profile
	if err := r.client.do(ctx, http.MethodGet, "profiles", query, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *restProfile) Update(ctx context.Context, profile *Profile) error {
	query := url.Values{}
	query.Set("id", "eq."+profile.ID)

	patch := map[string]interface{}{
		"full_name": profile.FullName,
	}
	if profile.Email != "" {
		patch["email"] = profile.Email
	}
	return r.client.do(ctx, http.MethodPatch, "profiles", query, patch, nil)
}
