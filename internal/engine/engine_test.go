package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rshade/sagequery/internal/engine/cache"
	"github.com/rshade/sagequery/internal/history"
	"github.com/rshade/sagequery/internal/rdf"
	"github.com/rshade/sagequery/internal/sage"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, req sage.Request) (*rdf.ResultSet, *sage.Stats, error) {
	args := m.Called(ctx, req)
	rs, _ := args.Get(0).(*rdf.ResultSet)
	stats, _ := args.Get(1).(*sage.Stats)
	return rs, stats, args.Error(2)
}

func resultOf(n int) *rdf.ResultSet {
	rs := &rdf.ResultSet{Vars: []string{"n"}}
	for i := range n {
		rs.Rows = append(rs.Rows, rdf.BindingOf("n", rdf.NewLiteral(strconv.Itoa(i))))
	}
	return rs
}

func testRequest() sage.Request {
	return sage.Request{Query: "SELECT ?n WHERE { ?s ?p ?n }", DefaultGraph: "http://g"}
}

func TestEngine_DefaultServerAndStats(t *testing.T) {
	exec := &mockExecutor{}
	want := testRequest()
	want.Server = "http://sage.example"
	exec.On("Execute", mock.Anything, want).
		Return(resultOf(3), &sage.Stats{Pages: 1, Rows: 3}, nil).Once()

	e := New(exec).WithDefaultServer("http://sage.example")
	res, err := e.Execute(context.Background(), testRequest(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ResultSet.Len())
	assert.False(t, res.Cached)
	assert.Equal(t, "http://sage.example", res.Request.Server)
	exec.AssertExpectations(t)
}

func TestEngine_CacheHitSkipsExecutor(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir(), true, cache.DefaultTTLSeconds, 0)
	require.NoError(t, err)

	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(resultOf(5), &sage.Stats{Pages: 1, Rows: 5}, nil).Once()

	e := New(exec).WithCache(store).WithDefaultServer("http://s")

	first, err := e.Execute(context.Background(), testRequest(), Options{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := e.Execute(context.Background(), testRequest(), Options{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 5, second.ResultSet.Len())
	assert.Equal(t, 1, second.Stats.Pages)

	exec.AssertNumberOfCalls(t, "Execute", 1)
}

func TestEngine_NoCacheBypassesLookup(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir(), true, cache.DefaultTTLSeconds, 0)
	require.NoError(t, err)

	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(resultOf(1), &sage.Stats{Pages: 1, Rows: 1}, nil).Twice()

	e := New(exec).WithCache(store).WithDefaultServer("http://s")
	for range 2 {
		res, execErr := e.Execute(context.Background(), testRequest(), Options{NoCache: true})
		require.NoError(t, execErr)
		assert.False(t, res.Cached)
	}
	exec.AssertExpectations(t)
}

func TestEngine_RecordsHistory(t *testing.T) {
	h, err := history.Open(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(r sage.Request) bool {
		return r.Query == "bad"
	})).Return(nil, nil, sage.ErrTooManyPages).Once()
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(resultOf(2), &sage.Stats{Pages: 2, Rows: 2, Duration: time.Second}, nil).Once()

	e := New(exec).WithHistory(h).WithDefaultServer("http://s")
	ctx := context.Background()

	_, err = e.Execute(ctx, sage.Request{Query: "bad"}, Options{})
	require.ErrorIs(t, err, sage.ErrTooManyPages)

	res, err := e.Execute(ctx, testRequest(), Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.HistoryID)

	entries, err := h.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Rows)
	assert.Equal(t, time.Second, entries[0].Duration)
	assert.True(t, entries[1].Failed())
}

func TestEngine_Timeout(t *testing.T) {
	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx, _ := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(nil, nil, context.DeadlineExceeded).Once()

	e := New(exec).WithTimeout(10 * time.Millisecond).WithDefaultServer("http://s")
	_, err := e.Execute(context.Background(), testRequest(), Options{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_NoExecutor(t *testing.T) {
	_, err := New(nil).Execute(context.Background(), testRequest(), Options{})
	require.Error(t, err)
}

func TestEngine_WrapsExecutorError(t *testing.T) {
	boom := errors.New("connection refused")
	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.Anything).Return(nil, nil, boom)

	_, err := New(exec).WithDefaultServer("http://s").Execute(context.Background(), testRequest(), Options{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "http://s")
}

func TestEngine_MissingStatsAndResults(t *testing.T) {
	h, err := history.Open(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(r sage.Request) bool {
		return r.Query == "empty"
	})).Return(nil, nil, nil).Once()
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(resultOf(4), nil, nil).Once()

	e := New(exec).WithHistory(h).WithDefaultServer("http://s")
	ctx := context.Background()

	res, err := e.Execute(ctx, testRequest(), Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 4, res.Stats.Rows)
	assert.Zero(t, res.Stats.Pages)
	assert.NotEmpty(t, res.HistoryID)

	res, err = e.Execute(ctx, sage.Request{Query: "empty"}, Options{})
	require.NoError(t, err)
	require.NotNil(t, res.ResultSet)
	assert.Zero(t, res.ResultSet.Len())
	require.NotNil(t, res.Stats)
	exec.AssertExpectations(t)
}
