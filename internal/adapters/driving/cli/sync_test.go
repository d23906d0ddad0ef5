package cli

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	report  *domain.RunReport
	reports []domain.RunReport
	err     error
	delay   time.Duration
	status  *driving.SyncStatus
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, _ string, _ domain.SourceKind, _ string) (*domain.RunReport, error) {
	time.Sleep(m.delay)
	return m.report, m.err
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) ([]domain.RunReport, error) {
	return m.reports, m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, _ string, _ domain.SourceKind, _ string) (*driving.SyncStatus, error) {
	return m.status, nil
}

func setupSyncTest(m *mockSyncOrchestrator) func() {
	old := syncOrchestrator
	syncOrchestrator = m
	return func() {
		syncOrchestrator = old
	}
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [tenant] [kind] [id]", syncCmd.Use)
	assert.Contains(t, syncCmd.Long, "advances")
}

func TestSyncCmd_Args(t *testing.T) {
	defer setupSyncTest(&mockSyncOrchestrator{})()

	_, err := executeCommand(t, "sync")
	assert.Error(t, err)

	_, err = executeCommand(t, "sync", "--all", "acme")
	assert.Error(t, err)

	_, err = executeCommand(t, "sync", "acme", "ftp", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSyncCmd_PrintsReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	report := &domain.RunReport{
		ConnectionID: "handbook",
		TenantID:     "acme",
		Kind:         domain.KindSQL,
		State:        domain.StateIdle,
		Batches:      2,
		Records:      5,
		Documents:    7,
		StartCursor:  "",
		EndCursor:    "5",
		StartedAt:    start,
		EndedAt:      start.Add(1500 * time.Millisecond),
	}
	report.AddSkip(domain.SkipEmpty)
	report.AddSkip(domain.SkipUnsupported)
	defer setupSyncTest(&mockSyncOrchestrator{report: report})()

	out, err := executeCommand(t, "sync", "acme", "sql", "handbook")
	require.NoError(t, err)
	assert.Contains(t, out, "Synchronising acme/sql/handbook...")
	assert.Contains(t, out, "acme/sql/handbook: idle")
	assert.Contains(t, out, "Batches: 2  Records: 5  Documents: 7  Skipped: 2")
	assert.Contains(t, out, "empty: 1")
	assert.Contains(t, out, "unsupported: 1")
	assert.Contains(t, out, `Cursor: "" -> "5"`)
	assert.Contains(t, out, "Took 1.5s")
}

func TestSyncCmd_ReportsFailure(t *testing.T) {
	report := &domain.RunReport{ConnectionID: "x", TenantID: "acme", Kind: domain.KindSQL, State: domain.StateFailed}
	defer setupSyncTest(&mockSyncOrchestrator{report: report, err: domain.ErrPartialWrite})()

	out, err := executeCommand(t, "sync", "acme", "sql", "x")
	assert.ErrorIs(t, err, domain.ErrPartialWrite)
	assert.Contains(t, out, "acme/sql/x: failed")
}

func TestSyncCmd_ShowsProgress(t *testing.T) {
	oldInterval := syncPollInterval
	syncPollInterval = 5 * time.Millisecond
	defer func() { syncPollInterval = oldInterval }()

	m := &mockSyncOrchestrator{
		report: &domain.RunReport{TenantID: "acme", Kind: domain.KindSQL, ConnectionID: "x", State: domain.StateIdle},
		delay:  100 * time.Millisecond,
		status: &driving.SyncStatus{Running: true, State: domain.StateWriting, RecordsProcessed: 3},
	}
	defer setupSyncTest(m)()

	out, err := executeCommand(t, "sync", "acme", "sql", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "Processing... 3 records (writing)")
}

func TestSyncCmd_All(t *testing.T) {
	m := &mockSyncOrchestrator{reports: []domain.RunReport{
		{TenantID: "acme", Kind: domain.KindSQL, ConnectionID: "a", State: domain.StateIdle},
		{TenantID: "acme", Kind: domain.KindGCS, ConnectionID: "b", State: domain.StateFailed},
	}, err: errors.New("1 of 2 connections failed")}
	defer setupSyncTest(m)()

	out, err := executeCommand(t, "sync", "--all")
	assert.ErrorContains(t, err, "1 of 2 connections failed")
	assert.Contains(t, out, "Synchronising all connections...")
	assert.Contains(t, out, "acme/sql/a: idle")
	assert.Contains(t, out, "acme/gcs/b: failed")
}

func TestSyncCmd_EndToEnd(t *testing.T) {
	source := filepath.Join(t.TempDir(), "handbook.db")
	db, err := sql.Open("sqlite", source)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE pages (id INTEGER PRIMARY KEY, title TEXT, content TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO pages (title, content) VALUES
		('Vacation', 'Employees receive twenty days of vacation.'),
		('Expenses', 'Submit receipts within thirty days.')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	setupTestServices(t)

	_, err = executeCommand(t, "connection", "add", "acme", "sql", "handbook",
		"-p", "dsn="+source, "-p", "table=pages")
	require.NoError(t, err)

	out, err := executeCommand(t, "sync", "acme", "sql", "handbook")
	require.NoError(t, err)
	assert.Contains(t, out, "Records: 2  Documents: 2")

	_, err = executeCommand(t, "category", "grant", "acme", "alice", "handbook")
	require.NoError(t, err)

	out, err = executeCommand(t, "search", "acme", "alice", "receipts")
	require.NoError(t, err)
	assert.Contains(t, out, "Expenses")
}
