package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	mock_search "github.com/at-ishikawa/cinelog/internal/mocks/search"
	"github.com/at-ishikawa/cinelog/internal/remote"
)

var (
	inception = catalog.Movie{ID: "tt1375666", Title: "Inception", Year: "2010"}
	memento   = catalog.Movie{ID: "tt0209144", Title: "Memento", Year: "2000"}
)

func TestController_DebounceFiresOnceWithLastText(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)
	searcher.EXPECT().
		SearchCatalog(gomock.Any(), "incep").
		Return([]catalog.Movie{inception}, nil).
		Times(1)

	c := NewController(context.Background(), searcher, Options{Debounce: 50 * time.Millisecond})
	for _, text := range []string{"i", "in", "inc", "ince", "incep"} {
		c.OnQueryChange(text)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return c.State().Seq == 1 }, time.Second, 5*time.Millisecond)
	// give a stray timer the chance to fire a second search
	time.Sleep(100 * time.Millisecond)

	state := c.State()
	assert.Equal(t, "incep", state.Query)
	assert.Equal(t, "incep", state.ResultsFor)
	assert.Equal(t, []catalog.Movie{inception}, state.Results)
	assert.NoError(t, state.Err)
	assert.False(t, state.Loading)
}

func TestController_DefaultDebounce(t *testing.T) {
	c := NewController(context.Background(), nil, Options{})
	assert.Equal(t, 300*time.Millisecond, c.debounce)
}

func TestController_BlankQueryClearsWithoutNetwork(t *testing.T) {
	tests := []struct {
		name  string
		edits []string
	}{
		{name: "empty", edits: []string{""}},
		{name: "whitespace", edits: []string{"   \t"}},
		{name: "blank after text cancels the scheduled search", edits: []string{"matrix", " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			searcher := mock_search.NewMockSearcher(ctrl)
			searcher.EXPECT().SearchCatalog(gomock.Any(), gomock.Any()).Times(0)

			c := NewController(context.Background(), searcher, Options{Debounce: 20 * time.Millisecond})
			for _, edit := range tt.edits {
				c.OnQueryChange(edit)
			}
			time.Sleep(60 * time.Millisecond)

			state := c.State()
			assert.Nil(t, state.Results)
			assert.NoError(t, state.Err)
			assert.False(t, state.Loading)
			assert.Equal(t, uint64(0), state.Seq)
		})
	}
}

func TestController_StaleResponseDoesNotOverwriteNewer(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)

	firstCalled := make(chan struct{})
	releaseFirst := make(chan struct{})
	searcher.EXPECT().
		SearchCatalog(gomock.Any(), "mem").
		DoAndReturn(func(context.Context, string) ([]catalog.Movie, error) {
			close(firstCalled)
			<-releaseFirst
			return []catalog.Movie{memento}, nil
		})
	searcher.EXPECT().
		SearchCatalog(gomock.Any(), "inception").
		Return([]catalog.Movie{inception}, nil)

	c := NewController(context.Background(), searcher, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Submit("mem")
	}()
	<-firstCalled

	state := c.Submit("inception")
	assert.Equal(t, uint64(2), state.Seq)
	assert.Equal(t, []catalog.Movie{inception}, state.Results)

	close(releaseFirst)
	wg.Wait()

	state = c.State()
	assert.Equal(t, uint64(2), state.Seq)
	assert.Equal(t, "inception", state.ResultsFor)
	assert.Equal(t, []catalog.Movie{inception}, state.Results)
}

func TestController_OlderResponseAppliesWhileNewerIsPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)

	secondCalled := make(chan struct{})
	releaseSecond := make(chan struct{})
	searcher.EXPECT().
		SearchCatalog(gomock.Any(), "memento").
		Return([]catalog.Movie{memento}, nil)
	searcher.EXPECT().
		SearchCatalog(gomock.Any(), "inception").
		DoAndReturn(func(context.Context, string) ([]catalog.Movie, error) {
			close(secondCalled)
			<-releaseSecond
			return []catalog.Movie{inception}, nil
		})

	c := NewController(context.Background(), searcher, Options{})
	state := c.Submit("memento")
	require.Equal(t, uint64(1), state.Seq)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Submit("inception")
	}()
	<-secondCalled

	state = c.State()
	assert.Equal(t, []catalog.Movie{memento}, state.Results)
	assert.True(t, state.Loading)

	close(releaseSecond)
	wg.Wait()
	state = c.State()
	assert.Equal(t, uint64(2), state.Seq)
	assert.Equal(t, []catalog.Movie{inception}, state.Results)
	assert.False(t, state.Loading)
}

func TestController_FailureSetsErrorAndClearsResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)
	gomock.InOrder(
		searcher.EXPECT().SearchCatalog(gomock.Any(), "matrix").Return([]catalog.Movie{inception}, nil),
		searcher.EXPECT().SearchCatalog(gomock.Any(), "matrix 2").Return(nil, remote.ErrUnavailable),
	)

	c := NewController(context.Background(), searcher, Options{})
	require.Len(t, c.Submit("matrix").Results, 1)

	state := c.Submit("matrix 2")
	require.Error(t, state.Err)
	assert.True(t, errors.Is(state.Err, remote.ErrUnavailable))
	assert.Nil(t, state.Results)
	assert.False(t, state.Loading)
}

func TestController_CancelDiscardsInFlightResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)

	called := make(chan struct{})
	release := make(chan struct{})
	searcher.EXPECT().
		SearchCatalog(gomock.Any(), "gladiator").
		DoAndReturn(func(ctx context.Context, _ string) ([]catalog.Movie, error) {
			close(called)
			<-release
			// the call is not aborted by Cancel
			assert.NoError(t, ctx.Err())
			return []catalog.Movie{{ID: "tt0172495", Title: "Gladiator"}}, nil
		})

	c := NewController(context.Background(), searcher, Options{})
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	done := make(chan State)
	go func() {
		done <- c.Submit("gladiator")
	}()
	<-called

	c.Cancel()
	c.Cancel()
	close(release)
	state := <-done

	assert.Nil(t, state.Results)
	assert.Equal(t, uint64(0), state.Seq)
	assert.False(t, state.Loading)

	latest := <-updates
	assert.False(t, latest.Loading)
	assert.Nil(t, latest.Results)
}

func TestController_CancelStopsScheduledSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)
	searcher.EXPECT().SearchCatalog(gomock.Any(), gomock.Any()).Times(0)

	c := NewController(context.Background(), searcher, Options{Debounce: 20 * time.Millisecond})
	c.OnQueryChange("se7en")
	c.Cancel()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, uint64(0), c.State().Seq)
}

func TestController_LimiterSpacesDispatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)
	searcher.EXPECT().SearchCatalog(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	limiter := rate.NewLimiter(rate.Every(40*time.Millisecond), 1)
	c := NewController(context.Background(), searcher, Options{Limiter: limiter})

	start := time.Now()
	c.Submit("a")
	state := c.Submit("b")

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, uint64(2), state.Seq)
}

func TestController_SubscribeReceivesAppliedState(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mock_search.NewMockSearcher(ctrl)
	searcher.EXPECT().SearchCatalog(gomock.Any(), "memento").Return([]catalog.Movie{memento}, nil)

	c := NewController(context.Background(), searcher, Options{Debounce: 10 * time.Millisecond})
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	c.OnQueryChange("memento")

	timeout := time.After(time.Second)
	for {
		select {
		case state := <-updates:
			if state.Seq == 1 {
				assert.Equal(t, []catalog.Movie{memento}, state.Results)
				return
			}
		case <-timeout:
			t.Fatal("no applied state received")
		}
	}
}
