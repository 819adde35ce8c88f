package editguard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	saved []string
	err   error
}

func (r *recorder) save(_ context.Context, value string) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, value)
	return nil
}

func TestGuard_CleanClosesImmediately(t *testing.T) {
	g := New("loved it", (&recorder{}).save)

	assert.Equal(t, Clean, g.State())
	assert.Equal(t, Proceed, g.RequestClose())
	assert.False(t, g.AwaitingConfirmation())
}

func TestGuard_DirtyCloseNeedsConfirmation(t *testing.T) {
	tests := []struct {
		name        string
		confirm     bool
		wantClose   bool
		wantState   State
		wantValue   string
		wantPending bool
	}{
		{name: "confirm discards the change", confirm: true, wantClose: true, wantState: Clean, wantValue: "loved it"},
		{name: "keep editing stays dirty", confirm: false, wantClose: false, wantState: Dirty, wantValue: "loved it!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New("loved it", (&recorder{}).save)
			g.Edit("loved it!!")
			require.Equal(t, Dirty, g.State())

			require.Equal(t, NeedsConfirmation, g.RequestClose())
			assert.True(t, g.AwaitingConfirmation())

			var closed bool
			if tt.confirm {
				closed = g.Confirm()
			} else {
				g.KeepEditing()
				closed = g.Confirm()
			}

			assert.Equal(t, tt.wantClose, closed)
			assert.Equal(t, tt.wantState, g.State())
			assert.Equal(t, tt.wantValue, g.Value())
			assert.Equal(t, tt.wantPending, g.AwaitingConfirmation())
		})
	}
}

func TestGuard_ConfirmWithoutRequestDoesNothing(t *testing.T) {
	g := New("", (&recorder{}).save)
	g.Edit("draft")

	assert.False(t, g.Confirm())
	assert.Equal(t, Dirty, g.State())
	assert.Equal(t, "draft", g.Value())
}

func TestGuard_SuccessfulSaveClosesWithoutConfirmation(t *testing.T) {
	rec := &recorder{}
	g := New("", rec.save)
	g.Edit("rewatch in winter")

	require.NoError(t, g.Save(context.Background()))
	assert.Equal(t, []string{"rewatch in winter"}, rec.saved)
	assert.Equal(t, Clean, g.State())
	assert.Equal(t, Proceed, g.RequestClose())
}

func TestGuard_FailedSaveStaysDirty(t *testing.T) {
	failure := errors.New("remote unavailable")
	rec := &recorder{err: failure}
	g := New("", rec.save)
	g.Edit("draft")

	err := g.Save(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure))
	assert.True(t, errors.Is(g.Err(), failure))
	assert.Equal(t, Dirty, g.State())
	assert.Equal(t, NeedsConfirmation, g.RequestClose())

	rec.err = nil
	g.KeepEditing()
	require.NoError(t, g.Save(context.Background()))
	assert.NoError(t, g.Err())
	assert.Equal(t, Clean, g.State())
}

func TestGuard_SaveWhenCleanSkipsSaveFunc(t *testing.T) {
	rec := &recorder{}
	g := New("saved", rec.save)

	require.NoError(t, g.Save(context.Background()))
	assert.Empty(t, rec.saved)
}

func TestGuard_EditDuringSaveStaysDirty(t *testing.T) {
	var g *Guard
	g = New("", func(_ context.Context, value string) error {
		g.Edit(value + " and more")
		return nil
	})
	g.Edit("first")

	require.NoError(t, g.Save(context.Background()))
	assert.Equal(t, Dirty, g.State())
	assert.Equal(t, "first and more", g.Value())

	// confirming falls back to what was saved
	require.Equal(t, NeedsConfirmation, g.RequestClose())
	require.True(t, g.Confirm())
	assert.Equal(t, "first", g.Value())
}

func TestGuard_ConcurrentSaveIsRejected(t *testing.T) {
	var g *Guard
	var nested error
	g = New("", func(ctx context.Context, _ string) error {
		nested = g.Save(ctx)
		return nil
	})
	g.Edit("draft")

	require.NoError(t, g.Save(context.Background()))
	assert.True(t, errors.Is(nested, ErrSaveInProgress))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "clean", Clean.String())
	assert.Equal(t, "dirty", Dirty.String())
	assert.Equal(t, "needs confirmation", NeedsConfirmation.String())
	assert.Equal(t, "proceed", Proceed.String())
}
