package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceKind(t *testing.T) {
	for _, k := range SourceKinds() {
		got, err := ParseSourceKind(" " + string(k) + " ")
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseSourceKind("ftp")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestConnectionConfig_Validate(t *testing.T) {
	valid := ConnectionConfig{
		ID:       "cat-1",
		TenantID: "acme",
		Kind:     KindGCS,
		Params:   map[string]string{ParamBucket: "docs"},
	}

	tests := []struct {
		name   string
		mutate func(c *ConnectionConfig)
	}{
		{"missing id", func(c *ConnectionConfig) { c.ID = "" }},
		{"missing tenant", func(c *ConnectionConfig) { c.TenantID = " " }},
		{"bad kind", func(c *ConnectionConfig) { c.Kind = "ftp" }},
		{"missing required param", func(c *ConnectionConfig) { c.Params = nil }},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Params = map[string]string{ParamBucket: "docs"}
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConnectionConfig_Helpers(t *testing.T) {
	cfg := ConnectionConfig{ID: "cat-1", TenantID: "acme", Kind: KindSQL}

	assert.Equal(t, "sql:acme:cat-1", cfg.Key())
	assert.Equal(t, cfg.Key(), ConnectionKey(cfg.Kind, cfg.TenantID, cfg.ID))
	assert.Equal(t, "cat-1", cfg.DocumentCategory())
	assert.Equal(t, "datasource_sql_connection_acme", cfg.Namespace())
	assert.Equal(t, "", cfg.Param(ParamDSN))

	cfg.SetParam(ParamDSN, " file.db ")
	assert.Equal(t, "file.db", cfg.Param(ParamDSN))

	cfg.Category = "override"
	assert.Equal(t, "override", cfg.DocumentCategory())
}

func TestIndexNames(t *testing.T) {
	assert.Equal(t, "tenant_acme", TenantIndexName("acme"))
	assert.Equal(t, "categories_acme", CategoriesIndexName("acme"))
	assert.Equal(t, "category_user_acme", CategoryUserIndexName("acme"))
	assert.Equal(t, "datasource_gdrive_connection_acme", ConnectionIndexName(KindGoogleDrive, "acme"))
	assert.Equal(t, "search_logs_acme", SearchLogsIndexName("acme"))
}

func TestIsSecretParam(t *testing.T) {
	assert.True(t, IsSecretParam(KindDropbox, ParamToken))
	assert.False(t, IsSecretParam(KindDropbox, ParamFolderPath))
	assert.False(t, IsSecretParam("ftp", ParamToken))
}
