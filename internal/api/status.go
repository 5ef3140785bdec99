package api

import (
	"context"
	"net/http"

	"github.com/Tiliavir/punch/internal/model"
)

type statusResponse struct {
	Status model.ClockState `json:"status"`
}

// Status returns the server's view of whether the user is clocked in.
// Anything other than "in" counts as out.
func (c *Client) Status(ctx context.Context) (model.ClockState, error) {
	r, err := c.do(ctx, call{method: http.MethodGet, path: "/status"})
	if err != nil {
		return model.StateOut, err
	}
	var resp statusResponse
	if err := decode(r, &resp); err != nil {
		return model.StateOut, err
	}
	if resp.Status == model.StateIn {
		return model.StateIn, nil
	}
	return model.StateOut, nil
}

// Clock records a clock in or out.
func (c *Client) Clock(ctx context.Context, action model.ClockState) error {
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/clock",
		body:   model.ClockAction{Action: action},
	})
	return err
}
