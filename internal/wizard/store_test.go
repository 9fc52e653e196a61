package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s := NewStore(2)

	a, err := s.Create()
	require.NoError(t, err)
	b, err := s.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())

	_, err = s.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)

	got, err := s.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, s.Delete(a.ID()))
	_, err = s.Get(a.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, s.Len())

	_, err = s.Create()
	assert.NoError(t, err)
}

func TestStorePrune(t *testing.T) {
	s := NewStore(0)
	old, err := s.Create()
	require.NoError(t, err)
	old.mu.Lock()
	old.state.UpdatedAt = time.Now().Add(-2 * time.Hour)
	old.mu.Unlock()

	fresh, err := s.Create()
	require.NoError(t, err)

	removed := s.Prune(time.Now().Add(-time.Hour))
	assert.Equal(t, 1, removed)

	_, err = s.Get(old.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestStageText(t *testing.T) {
	for _, stage := range Stages() {
		text, err := stage.MarshalText()
		require.NoError(t, err)

		var back Stage
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, stage, back)
	}

	var s Stage
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
	_, err := Stage(9).MarshalText()
	assert.Error(t, err)

	raw, err := json.Marshal(initialState("abc"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"current_stage":"market_analysis"`)
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrSessionNotFound, http.StatusNotFound},
		{ErrStageLocked, http.StatusConflict},
		{ErrReportIncomplete, http.StatusConflict},
		{ErrInvalidSelection, http.StatusBadRequest},
		{fmt.Errorf("%w: bad date", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: failed to load MVP guide", ErrStageFailed), http.StatusBadGateway},
		{ErrTooManySessions, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapHTTPStatus(tt.err), tt.err.Error())
	}
}
