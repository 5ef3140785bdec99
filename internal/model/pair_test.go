package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/punch/internal/model"
)

func punch(typ model.EventType, ts string, hours *float64) *model.ClockEvent {
	at, _ := time.Parse(time.RFC3339, ts)
	return &model.ClockEvent{Type: typ, Timestamp: ts, At: at, Hours: hours}
}

func hoursPtr(h float64) *float64 { return &h }

func TestNewSessionPairRejectsEmpty(t *testing.T) {
	_, err := model.NewSessionPair(nil, nil)
	assert.ErrorIs(t, err, model.ErrEmptyPair)
}

func TestSessionPairKinds(t *testing.T) {
	in := punch(model.ClockIn, "2026-03-02T09:00:00Z", nil)
	out := punch(model.ClockOut, "2026-03-02T12:30:00Z", hoursPtr(3.5))

	tests := []struct {
		name      string
		in, out   *model.ClockEvent
		wantKind  model.PairKind
		wantLabel string
		wantKey   string
	}{
		{"complete", in, out, model.PairComplete, "3.50h", out.Timestamp},
		{"in progress", in, nil, model.PairInProgress, model.InProgressLabel, in.Timestamp},
		{"orphan", nil, out, model.PairOrphan, "3.50h", out.Timestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := model.NewSessionPair(tt.in, tt.out)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, p.Kind())
			assert.Equal(t, tt.wantLabel, p.DurationLabel())
			assert.Equal(t, tt.wantKey, p.Key())
		})
	}
}

func TestSessionPairNonPositiveDurationIsShown(t *testing.T) {
	in := punch(model.ClockIn, "2026-03-02T12:00:00Z", nil)
	out := punch(model.ClockOut, "2026-03-02T11:00:00Z", nil)
	p, err := model.NewSessionPair(in, out)
	require.NoError(t, err)

	h, ok := p.Hours()
	require.True(t, ok)
	assert.InDelta(t, -1.0, h, 1e-9)
	assert.Equal(t, "-1.00h", p.DurationLabel())
}

func TestClockEventDay(t *testing.T) {
	e := model.ClockEvent{Timestamp: "2026-03-02T23:30:00Z", Date: "2026-03-03"}
	assert.Equal(t, "2026-03-03", e.Day())

	e.Date = ""
	assert.Equal(t, "2026-03-02", e.Day())
}

func TestUserDisplayName(t *testing.T) {
	var nilUser *model.User
	assert.Equal(t, "", nilUser.DisplayName())
	assert.Equal(t, "a@b.c", (&model.User{Email: "a@b.c", Subject: "x"}).DisplayName())
	assert.Equal(t, "Ada", (&model.User{Name: "Ada", Email: "a@b.c"}).DisplayName())
}
