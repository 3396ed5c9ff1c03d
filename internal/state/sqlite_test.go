package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finstack-labs/finsight/internal/testutil"
	"github.com/finstack-labs/finsight/pkg/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, core.RunStatusRunning, run.Status)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.CompleteRun(run.ID, core.RunStatusCompleted, ""))
	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestCompleteRunWithError(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(run.ID, core.RunStatusFailed, "connection refused"))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, got.Status)
	assert.Equal(t, "connection refused", got.Error)
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun("missing")
	assert.Error(t, err)
}

func TestGetLatestRun(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetLatestRun("dev")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.CreateRun("dev")
	require.NoError(t, err)
	second, err := s.CreateRun("dev")
	require.NoError(t, err)
	_, err = s.CreateRun("prod")
	require.NoError(t, err)

	got, err = s.GetLatestRun("dev")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)

	for range 3 {
		_, err := s.CreateRun("dev")
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSnapshots(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetLatestSnapshot("dev")
	require.NoError(t, err)
	assert.Nil(t, got)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveSnapshot(run.ID, first, []byte(`{"v":1}`)))
	require.NoError(t, s.SaveSnapshot(run.ID, first.Add(time.Hour), []byte(`{"v":2}`)))

	got, err = s.GetLatestSnapshot("dev")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.RunID)
	assert.JSONEq(t, `{"v":2}`, string(got.Payload))

	// Another environment sees nothing.
	got, err = s.GetLatestSnapshot("prod")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsightCache(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetInsight(core.InsightBudget, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	rec := &core.InsightRecord{
		Kind:      core.InsightBudget,
		InputHash: "abc",
		Content:   "spend less on croissants",
		Model:     "qwen-plus-2025-04-28",
	}
	require.NoError(t, s.SaveInsight(rec))

	got, err = s.GetInsight(core.InsightBudget, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Content, got.Content)

	// Same kind and hash replaces the stored content.
	rec.Content = "revised advice"
	require.NoError(t, s.SaveInsight(rec))
	got, err = s.GetInsight(core.InsightBudget, "abc")
	require.NoError(t, err)
	assert.Equal(t, "revised advice", got.Content)

	all, err := s.ListInsights(10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestChatMessages(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendChatMessage(&core.ChatMessage{
		SessionID: "s1", Role: "user", Content: "how are sales?",
	}))
	require.NoError(t, s.AppendChatMessage(&core.ChatMessage{
		SessionID: "s1", Role: "assistant", Content: "trending up",
	}))
	require.NoError(t, s.AppendChatMessage(&core.ChatMessage{
		SessionID: "s2", Role: "user", Content: "hello",
	}))

	msgs, err := s.GetChatMessages("s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "trending up", msgs[1].Content)

	require.NoError(t, s.ClearChatSession("s1"))
	msgs, err = s.GetChatMessages("s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.GetChatMessages("s2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMigrationVersion(t *testing.T) {
	s := newTestStore(t)
	v, err := s.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}
