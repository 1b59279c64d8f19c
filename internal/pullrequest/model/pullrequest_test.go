package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festy23/prmetrics/internal/validation"
)

var createdAt = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func openParams() OpenParams {
	return OpenParams{
		ProjectID:     1,
		Number:        42,
		Author:        "octocat",
		HeadCommitSHA: "abc123",
		Title:         "Add metrics",
		Link:          "https://github.com/acme/api/pull/42",
		Stats:         ChangeStats{ChangedFiles: 2, Additions: 30, Deletions: 5},
		CommitCount:   1,
		CreatedAt:     createdAt,
	}
}

func newPR(t *testing.T, draft bool) *PullRequest {
	t.Helper()
	p := openParams()
	p.Draft = draft
	pr, err := New(p)
	require.NoError(t, err)
	return pr
}

func TestNew(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		pr := newPR(t, false)
		assert.Equal(t, StateOpen, pr.State)
		assert.Equal(t, ChangeStats{ChangedFiles: 2, Additions: 30, Deletions: 5}, pr.ChangeStats())
		assert.Nil(t, pr.Timing().MergedAt)
	})

	t.Run("draft", func(t *testing.T) {
		assert.Equal(t, StateDraft, newPR(t, true).State)
	})

	invalid := map[string]func(p *OpenParams){
		"zero number":      func(p *OpenParams) { p.Number = 0 },
		"blank sha":        func(p *OpenParams) { p.HeadCommitSHA = "  " },
		"blank title":      func(p *OpenParams) { p.Title = "" },
		"blank link":       func(p *OpenParams) { p.Link = "" },
		"negative commits": func(p *OpenParams) { p.CommitCount = -1 },
		"lines, no files":  func(p *OpenParams) { p.Stats = ChangeStats{Additions: 3} },
		"no created at":    func(p *OpenParams) { p.CreatedAt = time.Time{} },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			p := openParams()
			mutate(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, validation.ErrInvalidArgument)
		})
	}
}

func TestStateMachine(t *testing.T) {
	t.Run("draft to open to draft", func(t *testing.T) {
		pr := newPR(t, true)

		tr, err := pr.MarkReadyForReview()
		require.NoError(t, err)
		assert.Equal(t, Transition{From: StateDraft, To: StateOpen}, tr)

		tr, err = pr.ConvertToDraft()
		require.NoError(t, err)
		assert.Equal(t, Transition{From: StateOpen, To: StateDraft}, tr)
	})

	t.Run("ready for review requires draft", func(t *testing.T) {
		_, err := newPR(t, false).MarkReadyForReview()
		assert.ErrorIs(t, err, ErrNotDraft)
		assert.True(t, IsStateConflict(err))
	})

	t.Run("convert to draft requires open", func(t *testing.T) {
		_, err := newPR(t, true).ConvertToDraft()
		assert.ErrorIs(t, err, ErrNotOpen)
	})

	t.Run("merge from draft", func(t *testing.T) {
		pr := newPR(t, true)
		at := createdAt.Add(28*time.Hour + 30*time.Minute)

		tr, err := pr.Close(true, at)
		require.NoError(t, err)
		assert.Equal(t, Transition{From: StateDraft, To: StateMerged}, tr)
		require.NotNil(t, pr.MergedAt)
		require.NotNil(t, pr.ClosedAt)

		ttm, ok := pr.Timing().TimeToMerge()
		require.True(t, ok)
		assert.Equal(t, int64(1710), ttm.Minutes())
	})

	t.Run("close without merge", func(t *testing.T) {
		pr := newPR(t, false)
		tr, err := pr.Close(false, createdAt.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, StateClosed, tr.To)
		assert.Nil(t, pr.MergedAt)
		assert.NotNil(t, pr.ClosedAt)
	})

	t.Run("close before creation is invalid", func(t *testing.T) {
		pr := newPR(t, false)
		_, err := pr.Close(false, createdAt.Add(-time.Hour))
		assert.ErrorIs(t, err, validation.ErrInvalidArgument)
		assert.Equal(t, StateOpen, pr.State)
		assert.Nil(t, pr.ClosedAt)
	})

	t.Run("terminal states reject every command", func(t *testing.T) {
		for _, merged := range []bool{true, false} {
			pr := newPR(t, false)
			_, err := pr.Close(merged, createdAt.Add(time.Hour))
			require.NoError(t, err)
			final := pr.State

			_, err = pr.Close(!merged, createdAt.Add(2*time.Hour))
			assert.ErrorIs(t, err, ErrAlreadyTerminal)
			_, err = pr.MarkReadyForReview()
			assert.ErrorIs(t, err, ErrAlreadyTerminal)
			_, err = pr.ConvertToDraft()
			assert.ErrorIs(t, err, ErrAlreadyTerminal)
			err = pr.ApplySynchronize("def456", ChangeStats{}, 2)
			assert.ErrorIs(t, err, ErrAlreadyTerminal)

			assert.Equal(t, final, pr.State)
			assert.Equal(t, "abc123", pr.HeadCommitSHA)
		}
	})
}

func TestApplySynchronize(t *testing.T) {
	pr := newPR(t, false)

	require.NoError(t, pr.ApplySynchronize("def456", ChangeStats{ChangedFiles: 4, Additions: 90, Deletions: 10}, 3))
	assert.Equal(t, "def456", pr.HeadCommitSHA)
	assert.Equal(t, 100, pr.ChangeStats().TotalLines())
	assert.Equal(t, 3, pr.CommitCount)

	err := pr.ApplySynchronize("", ChangeStats{}, 1)
	assert.ErrorIs(t, err, validation.ErrInvalidArgument)

	err = pr.ApplySynchronize("fff", ChangeStats{Additions: 1}, 1)
	assert.ErrorIs(t, err, validation.ErrInvalidArgument)
	assert.Equal(t, "def456", pr.HeadCommitSHA)
}

func TestState(t *testing.T) {
	assert.True(t, StateMerged.IsTerminal())
	assert.True(t, StateClosed.IsTerminal())
	assert.False(t, StateOpen.IsTerminal())
	assert.False(t, StateDraft.IsTerminal())
	assert.True(t, StateDraft.Valid())
	assert.False(t, State("REOPENED").Valid())
}
