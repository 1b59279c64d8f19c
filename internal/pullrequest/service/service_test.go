package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/database/dbtest"
	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/event/eventtest"
	"github.com/festy23/prmetrics/internal/ingest"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	projectRepository "github.com/festy23/prmetrics/internal/project/repository"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	"github.com/festy23/prmetrics/internal/pullrequest/repository"
	"github.com/festy23/prmetrics/internal/validation"
)

const apiKey = "key-1"

var createdAt = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	svc       Service
	repo      repository.Repository
	project   *projectModel.Project
	publisher *eventtest.Recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	project := dbtest.SeedProject(t, db, "user-1", apiKey)
	logger := zap.NewNop().Sugar()
	publisher := &eventtest.Recorder{}
	runner := ingest.New(db, projectRepository.New(db, logger), publisher, 0, logger)
	return &fixture{
		db:        db,
		svc:       New(runner, logger),
		repo:      repository.New(db, logger),
		project:   project,
		publisher: publisher,
	}
}

func header(number int, sha string, at time.Time) pullrequestModel.Header {
	return pullrequestModel.Header{
		Number:        number,
		HeadCommitSHA: sha,
		Actor:         pullrequestModel.Actor{ID: 1, Login: "octocat"},
		OccurredAt:    at,
	}
}

func openedPayload(number int, draft bool) *pullrequestModel.OpenedPayload {
	return &pullrequestModel.OpenedPayload{
		Header:       header(number, "c2", createdAt),
		Title:        "Add feature",
		Link:         "https://github.com/acme/app/pull/1",
		Author:       "octocat",
		Draft:        draft,
		ChangedFiles: 2,
		Additions:    40,
		Deletions:    10,
		Commits: []pullrequestModel.CommitPayload{
			{SHA: "c1", CommittedAt: createdAt.Add(-2 * time.Hour)},
			{SHA: "c2", CommittedAt: createdAt.Add(-time.Hour)},
		},
		Files: []pullrequestModel.FilePayload{
			{Path: "main.go", Status: "modified", Additions: 30, Deletions: 10},
			{Path: "new.go", Status: "added", Additions: 10},
		},
		CreatedAt: createdAt,
	}
}

func (f *fixture) get(t *testing.T, number int) *pullrequestModel.PullRequest {
	t.Helper()
	pr, err := f.repo.GetByNumber(context.Background(), f.project.ID, number)
	require.NoError(t, err)
	return pr
}

func TestOpened(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))

	pr := f.get(t, 1)
	assert.Equal(t, pullrequestModel.StateOpen, pr.State)
	assert.Equal(t, "c2", pr.HeadCommitSHA)
	assert.Equal(t, 2, pr.CommitCount)
	assert.Equal(t, 50, pr.ChangeStats().TotalLines())

	history, err := f.repo.StateHistory(ctx, pr.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].FromState)
	assert.Equal(t, pullrequestModel.StateOpen, history[0].ToState)

	files, err := f.repo.Files(ctx, pr.ID)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	opened := f.publisher.OfKind(event.KindPullRequestOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, pr.ID, opened[0].PullRequestID)
}

func TestOpened_Draft(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.svc.Opened(context.Background(), apiKey, openedPayload(1, true)))
	assert.Equal(t, pullrequestModel.StateDraft, f.get(t, 1).State)
}

func TestOpened_Redelivery(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))
	}

	var prs, history int64
	require.NoError(t, f.db.Model(&pullrequestModel.PullRequest{}).Count(&prs).Error)
	require.NoError(t, f.db.Model(&pullrequestModel.StateHistory{}).Count(&history).Error)
	assert.Equal(t, int64(1), prs)
	assert.Equal(t, int64(1), history)

	opened := f.publisher.OfKind(event.KindPullRequestOpened)
	require.Len(t, opened, 3)
	assert.Equal(t, opened[0].PullRequestID, opened[2].PullRequestID)
}

func TestOpened_Errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.svc.Opened(ctx, "wrong", openedPayload(1, false))
	assert.ErrorIs(t, err, projectModel.ErrInvalidAPIKey)

	blank := openedPayload(1, false)
	blank.Title = ""
	assert.ErrorIs(t, f.svc.Opened(ctx, apiKey, blank), validation.ErrInvalidArgument)

	negative := openedPayload(2, false)
	negative.Additions = -1
	assert.ErrorIs(t, f.svc.Opened(ctx, apiKey, negative), validation.ErrInvalidArgument)

	assert.Empty(t, f.publisher.Events())
}

func TestOpened_ConvertsToProjectTimeZone(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.db.Model(f.project).Update("time_zone", "Europe/Moscow").Error)

	require.NoError(t, f.svc.Opened(context.Background(), apiKey, openedPayload(1, false)))

	pr := f.get(t, 1)
	assert.True(t, pr.CreatedAt.Equal(createdAt))
}

func syncPayload(head string, shas ...string) *pullrequestModel.SynchronizePayload {
	commits := make([]pullrequestModel.CommitPayload, len(shas))
	for i, sha := range shas {
		commits[i] = pullrequestModel.CommitPayload{SHA: sha, CommittedAt: createdAt.Add(time.Duration(i) * time.Hour)}
	}
	return &pullrequestModel.SynchronizePayload{
		Header:       header(1, head, createdAt.Add(5*time.Hour)),
		ChangedFiles: 3,
		Additions:    120,
		Deletions:    30,
		Commits:      commits,
		Files: []pullrequestModel.FilePayload{
			{Path: "main.go", Status: "modified", Additions: 100, Deletions: 30},
			{Path: "a.go", Status: "added", Additions: 10},
			{Path: "b.go", Status: "added", Additions: 10},
		},
	}
}

func TestSynchronized_NewerHead(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))

	require.NoError(t, f.svc.Synchronized(ctx, apiKey, syncPayload("c3", "c1", "c2", "c3")))

	pr := f.get(t, 1)
	assert.Equal(t, "c3", pr.HeadCommitSHA)
	assert.Equal(t, 3, pr.CommitCount)
	assert.Equal(t, 150, pr.ChangeStats().TotalLines())

	files, err := f.repo.Files(ctx, pr.ID)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	synced := f.publisher.OfKind(event.KindCommitsSynchronized)
	require.Len(t, synced, 1)
	assert.True(t, synced[0].IsNewer)
	assert.Equal(t, []string{"c3"}, synced[0].NewCommits)
}

func TestSynchronized_StaleHeadKeepsAggregate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))

	require.NoError(t, f.svc.Synchronized(ctx, apiKey, syncPayload("c9", "c1", "c2", "c4")))

	pr := f.get(t, 1)
	assert.Equal(t, "c2", pr.HeadCommitSHA)
	assert.Equal(t, 50, pr.ChangeStats().TotalLines())

	shas, err := f.repo.CommitSHAs(ctx, pr.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2", "c4"}, shas)

	synced := f.publisher.OfKind(event.KindCommitsSynchronized)
	require.Len(t, synced, 1)
	assert.False(t, synced[0].IsNewer)
	assert.Equal(t, []string{"c4"}, synced[0].NewCommits)
}

func TestSynchronized_TerminalAndUnknown(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Synchronized(ctx, apiKey, syncPayload("c3", "c3")))
	assert.Empty(t, f.publisher.Events())

	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))
	require.NoError(t, f.svc.Closed(ctx, apiKey, &pullrequestModel.ClosedPayload{
		Header:   header(1, "c2", createdAt.Add(time.Hour)),
		ClosedAt: createdAt.Add(time.Hour),
	}))
	f.publisher.Reset()

	require.NoError(t, f.svc.Synchronized(ctx, apiKey, syncPayload("c3", "c1", "c2", "c3")))
	assert.Equal(t, "c2", f.get(t, 1).HeadCommitSHA)
	assert.Empty(t, f.publisher.Events())
}

func TestClosed_Merged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))

	mergedAt := time.Date(2024, 1, 16, 14, 30, 0, 0, time.UTC)
	payload := &pullrequestModel.ClosedPayload{
		Header:   header(1, "c2", mergedAt),
		Merged:   true,
		ClosedAt: mergedAt,
	}
	require.NoError(t, f.svc.Closed(ctx, apiKey, payload))

	pr := f.get(t, 1)
	assert.Equal(t, pullrequestModel.StateMerged, pr.State)
	ttm, ok := pr.Timing().TimeToMerge()
	require.True(t, ok)
	assert.Equal(t, int64(1710), ttm.Minutes())

	// redelivery is absorbed and republished
	require.NoError(t, f.svc.Closed(ctx, apiKey, payload))
	history, err := f.repo.StateHistory(ctx, pr.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Len(t, f.publisher.OfKind(event.KindPullRequestClosed), 2)
}

func TestClosed_BeforeCreatedIsInvalid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))

	err := f.svc.Closed(ctx, apiKey, &pullrequestModel.ClosedPayload{
		Header:   header(1, "c2", createdAt),
		ClosedAt: createdAt.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, validation.ErrInvalidArgument)
	assert.Equal(t, pullrequestModel.StateOpen, f.get(t, 1).State)
}

func TestClosed_UnknownPullRequest(t *testing.T) {
	f := setup(t)

	err := f.svc.Closed(context.Background(), apiKey, &pullrequestModel.ClosedPayload{
		Header:   header(42, "c2", createdAt),
		ClosedAt: createdAt,
	})
	assert.NoError(t, err)
	assert.Empty(t, f.publisher.Events())
}

func TestDraftTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, true)))
	change := &pullrequestModel.StateChangePayload{Header: header(1, "c2", createdAt.Add(time.Hour))}

	// DRAFT cannot be converted to draft again
	require.NoError(t, f.svc.ConvertedToDraft(ctx, apiKey, change))
	assert.Equal(t, pullrequestModel.StateDraft, f.get(t, 1).State)

	require.NoError(t, f.svc.ReadyForReview(ctx, apiKey, change))
	assert.Equal(t, pullrequestModel.StateOpen, f.get(t, 1).State)

	require.NoError(t, f.svc.ReadyForReview(ctx, apiKey, change))
	assert.Equal(t, pullrequestModel.StateOpen, f.get(t, 1).State)

	require.NoError(t, f.svc.ConvertedToDraft(ctx, apiKey, change))
	assert.Equal(t, pullrequestModel.StateDraft, f.get(t, 1).State)

	changed := f.publisher.OfKind(event.KindPullRequestStateChanged)
	require.Len(t, changed, 2)
	assert.Equal(t, "DRAFT", changed[0].FromState)
	assert.Equal(t, "OPEN", changed[0].ToState)
	assert.Equal(t, "OPEN", changed[1].FromState)
	assert.Equal(t, "DRAFT", changed[1].ToState)

	history, err := f.repo.StateHistory(ctx, f.get(t, 1).ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestTerminalIgnoresLifecycleWebhooks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Opened(ctx, apiKey, openedPayload(1, false)))
	require.NoError(t, f.svc.Closed(ctx, apiKey, &pullrequestModel.ClosedPayload{
		Header:   header(1, "c2", createdAt.Add(time.Hour)),
		ClosedAt: createdAt.Add(time.Hour),
	}))

	change := &pullrequestModel.StateChangePayload{Header: header(1, "c2", createdAt.Add(2*time.Hour))}
	require.NoError(t, f.svc.ConvertedToDraft(ctx, apiKey, change))
	require.NoError(t, f.svc.ReadyForReview(ctx, apiKey, change))
	require.NoError(t, f.svc.Closed(ctx, apiKey, &pullrequestModel.ClosedPayload{
		Header:   header(1, "c2", createdAt.Add(3*time.Hour)),
		Merged:   true,
		ClosedAt: createdAt.Add(3 * time.Hour),
	}))

	pr := f.get(t, 1)
	assert.Equal(t, pullrequestModel.StateClosed, pr.State)
	assert.Nil(t, pr.MergedAt)
	assert.True(t, pr.ClosedAt.Equal(createdAt.Add(time.Hour)))
}
