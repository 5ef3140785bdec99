// Package clock tracks whether the user is clocked in and performs the
// transitions between the two states.
package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/punch/internal/model"
)

var (
	// ErrInvalidTransition is returned for clocking in while in, or out while out.
	ErrInvalidTransition = errors.New("invalid clock transition")
	// ErrBusy is returned while another transition is still waiting for the server.
	ErrBusy = errors.New("a clock change is already in progress")
)

// Remote is the part of the API the tracker needs.
type Remote interface {
	Status(ctx context.Context) (model.ClockState, error)
	Clock(ctx context.Context, action model.ClockState) error
}

// Tracker holds the last known clock state. It starts out and only changes
// on a successful transition or an explicit Refresh.
type Tracker struct {
	remote Remote
	log    logrus.FieldLogger

	mu    sync.Mutex
	state model.ClockState
	busy  bool
}

func New(remote Remote, log logrus.FieldLogger) *Tracker {
	return &Tracker{remote: remote, log: log, state: model.StateOut}
}

// State returns the last known state.
func (t *Tracker) State() model.ClockState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Refresh asks the server for the current state.
func (t *Tracker) Refresh(ctx context.Context) (model.ClockState, error) {
	st, err := t.remote.Status(ctx)
	if err != nil {
		return t.State(), err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.busy {
		t.state = st
	}
	return t.state, nil
}

func (t *Tracker) ClockIn(ctx context.Context) error {
	return t.transition(ctx, model.StateOut, model.StateIn)
}

func (t *Tracker) ClockOut(ctx context.Context) error {
	return t.transition(ctx, model.StateIn, model.StateOut)
}

// Toggle performs whichever transition is legal from the current state and
// returns the new state.
func (t *Tracker) Toggle(ctx context.Context) (model.ClockState, error) {
	from := t.State()
	to := model.StateIn
	if from == model.StateIn {
		to = model.StateOut
	}
	if err := t.transition(ctx, from, to); err != nil {
		return t.State(), err
	}
	return to, nil
}

func (t *Tracker) transition(ctx context.Context, from, to model.ClockState) error {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrBusy
	}
	if t.state != from {
		cur := t.state
		t.mu.Unlock()
		return fmt.Errorf("%w: already clocked %s", ErrInvalidTransition, cur)
	}
	t.busy = true
	t.mu.Unlock()

	err := t.remote.Clock(ctx, to)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = false
	if err != nil {
		t.log.WithError(err).WithField("action", to).Debug("clock change failed")
		return err
	}
	t.state = to
	t.log.WithField("state", to).Info("clock state changed")
	return nil
}
