package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestConnectionCmd_AddListShow(t *testing.T) {
	a := setupTestServices(t)

	out, err := executeCommand(t, "connection", "add", "acme", "sql", "handbook",
		"--name", "Handbook",
		"--param", "dsn=postgres://reader:hunter2@db/hr",
		"-p", "table=pages")
	require.NoError(t, err)
	assert.Contains(t, out, "Added connection sql:acme:handbook (category handbook)")

	cfg, err := a.ConnectionService.Get(context.Background(), "acme", domain.KindSQL, "handbook")
	require.NoError(t, err)
	assert.Equal(t, "pages", cfg.Param(domain.ParamTable))

	out, err = executeCommand(t, "connection", "list", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "handbook")
	assert.Contains(t, out, "never")

	out, err = executeCommand(t, "connection", "show", "acme", "sql", "handbook")
	require.NoError(t, err)
	assert.Contains(t, out, "dsn = ********")
	assert.Contains(t, out, "table = pages")
	assert.Contains(t, out, "datasource_sql_connection_acme")
	assert.NotContains(t, out, "hunter2")
}

func TestConnectionCmd_SetAndReset(t *testing.T) {
	a := setupTestServices(t)
	ctx := context.Background()

	_, err := executeCommand(t, "connection", "add", "acme", "sql", "handbook",
		"-p", "dsn=/tmp/hr.db", "-p", "table=pages")
	require.NoError(t, err)

	out, err := executeCommand(t, "connection", "set", "acme", "sql", "handbook", "-p", "table=articles")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1 parameter(s).")

	cfg, err := a.ConnectionService.Get(ctx, "acme", domain.KindSQL, "handbook")
	require.NoError(t, err)
	assert.Equal(t, "articles", cfg.Param(domain.ParamTable))
	assert.Equal(t, "/tmp/hr.db", cfg.Param(domain.ParamDSN))

	_, err = executeCommand(t, "connection", "set", "acme", "sql", "handbook")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err = executeCommand(t, "connection", "reset", "acme", "sql", "handbook")
	require.NoError(t, err)
	assert.Contains(t, out, "Cursor cleared")
}

func TestConnectionCmd_Errors(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "connection", "add", "acme", "ftp", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "connection", "add", "acme", "sql", "x", "-p", "novalue")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "connection", "show", "acme", "sql", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err := executeCommand(t, "connection", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No connections configured.")
}

func TestConnectionCmd_Kinds(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "connection", "kinds")
	require.NoError(t, err)
	for _, kind := range []string{"sql", "mongodb", "gdrive", "dropbox", "gcs"} {
		assert.Contains(t, out, kind)
	}
	assert.Contains(t, out, "(secret)")
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: map[string]string{}},
		{name: "simple", pairs: []string{"table=pages"}, want: map[string]string{"table": "pages"}},
		{name: "value with equals", pairs: []string{"dsn=host=db user=x"}, want: map[string]string{"dsn": "host=db user=x"}},
		{name: "empty value", pairs: []string{"prefix="}, want: map[string]string{"prefix": ""}},
		{name: "missing equals", pairs: []string{"table"}, wantErr: true},
		{name: "empty key", pairs: []string{"=x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	kind, err := parseKind("GDrive")
	require.NoError(t, err)
	assert.Equal(t, domain.KindGoogleDrive, kind)

	_, err = parseKind("s3")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
