package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rshade/sagequery/internal/pager"
	"github.com/rshade/sagequery/internal/rdf"
	"github.com/rshade/sagequery/internal/sage"
)

func TestNewSession_InvalidPageSize(t *testing.T) {
	_, err := NewSession(nil, 0)
	require.ErrorIs(t, err, pager.ErrInvalidPageSize)
}

func TestSession_SubmitAndNavigate(t *testing.T) {
	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(resultOf(120), &sage.Stats{Pages: 3, Rows: 120}, nil).Once()

	s, err := NewSession(New(exec).WithDefaultServer("http://s"), 50)
	require.NoError(t, err)
	assert.False(t, s.HasResults())
	assert.Empty(t, s.Visible().Rows)

	_, err = s.Submit(context.Background(), testRequest(), Options{})
	require.NoError(t, err)
	assert.True(t, s.HasResults())
	assert.Equal(t, []string{"n"}, s.Columns())

	page := s.Visible()
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Rows, 50)

	assert.True(t, s.Next())
	assert.True(t, s.Next())
	assert.False(t, s.Next())
	assert.Equal(t, 100, s.Offset())
	assert.Len(t, s.Visible().Rows, 20)

	assert.True(t, s.First())
	assert.False(t, s.Prev())
	assert.True(t, s.Last())
	assert.True(t, s.GoTo(2))
	assert.Equal(t, 50, s.PageSize())
}

func TestSession_FailedSubmitKeepsState(t *testing.T) {
	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(r sage.Request) bool { return r.Query == "good" })).
		Return(resultOf(120), &sage.Stats{Pages: 1}, nil).Once()
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(nil, nil, errors.New("server down")).Once()

	s, err := NewSession(New(exec).WithDefaultServer("http://s"), 50)
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), sage.Request{Query: "good"}, Options{})
	require.NoError(t, err)
	s.Last()
	before := s.Visible()

	_, err = s.Submit(context.Background(), sage.Request{Query: "broken"}, Options{})
	require.Error(t, err)

	after := s.Visible()
	assert.Equal(t, before, after)
	assert.Equal(t, "good", s.Result().Request.Query)
}

func TestSession_LoadResetsToFirstPage(t *testing.T) {
	s, err := NewSession(nil, 50)
	require.NoError(t, err)

	s.Load(&Result{ResultSet: resultOf(120)})
	s.Last()
	require.Equal(t, 3, s.Visible().CurrentPage)

	s.Load(&Result{ResultSet: resultOf(10)})
	page := s.Visible()
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)

	s.Load(nil)
	assert.Equal(t, 10, s.Visible().TotalItems)

	_, err = s.Submit(context.Background(), testRequest(), Options{})
	require.ErrorIs(t, err, ErrNoEngine)
}

func TestSession_EmptyResult(t *testing.T) {
	s, err := NewSession(nil, 50)
	require.NoError(t, err)
	s.Load(&Result{ResultSet: &rdf.ResultSet{Vars: []string{"x"}}})

	page := s.Visible()
	assert.Equal(t, 0, page.TotalPages)
	assert.Empty(t, page.Rows)
	assert.False(t, s.Next())
	assert.False(t, s.Prev())
}

func TestSession_Reorder(t *testing.T) {
	s, err := NewSession(nil, 2)
	require.NoError(t, err)
	s.Reorder(nil)
	assert.False(t, s.HasResults())

	rs := resultOf(4)
	s.Load(&Result{ResultSet: rs})
	s.Next()

	reversed := []rdf.Binding{rs.Rows[3], rs.Rows[2], rs.Rows[1], rs.Rows[0]}
	s.Reorder(reversed)

	page := s.Visible()
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, reversed[:2], page.Rows)
	assert.Equal(t, rs.Rows[0], s.Result().ResultSet.Rows[3])
}

func TestSession_ConcurrentNavigation(t *testing.T) {
	s, err := NewSession(nil, 10)
	require.NoError(t, err)
	s.Load(&Result{ResultSet: resultOf(1000)})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				s.Next()
				_ = s.Visible()
				s.Prev()
			}
		}()
	}
	wg.Wait()

	page := s.Visible()
	assert.GreaterOrEqual(t, page.CurrentPage, 1)
	assert.LessOrEqual(t, page.CurrentPage, page.TotalPages)
}
