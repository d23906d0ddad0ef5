package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.Connector    = (*Connector)(nil)
	_ driven.Bootstrapper = (*Connector)(nil)
)

// Defaults for absent parameters.
const (
	DefaultDriver       = "sqlite"
	DefaultIDColumn     = "id"
	DefaultTitleColumn  = "title"
	DefaultContentField = "content"
	DefaultBatchSize    = 100
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to splice into SQL.
func ValidIdentifier(name string) bool {
	return identifier.MatchString(name)
}

// Connector reads rows from one table.
type Connector struct {
	db           *sql.DB
	table        string
	idCol        string
	titleCol     string
	contentCol   string
	batchSize    int
	bootstrapped bool

	mu     sync.Mutex
	closed bool
}

// New opens the database named by cfg.
func New(cfg *domain.ConnectionConfig, batchSize int) (*Connector, error) {
	// The changelog table and trigger Bootstrap creates use SQLite DDL.
	driver := orDefault(cfg.Param(domain.ParamDriver), DefaultDriver)
	if driver != DefaultDriver {
		return nil, fmt.Errorf("%w: sql driver %q is not supported, use %q",
			domain.ErrInvalidConfig, driver, DefaultDriver)
	}
	dsn := cfg.Param(domain.ParamDSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: sql requires %q", domain.ErrInvalidConfig, domain.ParamDSN)
	}

	c := &Connector{
		table:        cfg.Param(domain.ParamTable),
		idCol:        orDefault(cfg.Param(domain.ParamIDColumn), DefaultIDColumn),
		titleCol:     orDefault(cfg.TitleField, DefaultTitleColumn),
		contentCol:   orDefault(cfg.ContentField, DefaultContentField),
		batchSize:    batchSize,
		bootstrapped: cfg.Param(domain.ParamBootstrapped) == "true",
	}
	if n, err := strconv.Atoi(cfg.Param(domain.ParamBatchSize)); err == nil && n > 0 {
		c.batchSize = n
	}
	if c.batchSize <= 0 {
		c.batchSize = DefaultBatchSize
	}
	for _, name := range []string{c.table, c.idCol, c.titleCol, c.contentCol} {
		if !ValidIdentifier(name) {
			return nil, fmt.Errorf("%w: invalid sql identifier %q", domain.ErrInvalidConfig, name)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrConnectorValidation, driver, err)
	}
	c.db = db
	return c, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Kind returns the source kind.
func (c *Connector) Kind() domain.SourceKind {
	return domain.KindSQL
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsUpdates: true,
		RequiresAuth:    true,
		NeedsBootstrap:  true,
	}
}

// Validate checks the database is reachable and the columns exist.
func (c *Connector) Validate(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s LIMIT 0", c.idCol, c.titleCol, c.contentCol, c.table)
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}
	return rows.Close()
}

func (c *Connector) changelog() string {
	return c.table + "_changelog"
}

// Bootstrap creates the changelog table and update trigger. It marks cfg
// as bootstrapped so later runs skip it.
func (c *Connector) Bootstrap(ctx context.Context, cfg *domain.ConnectionConfig) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.bootstrapped {
		return nil
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			row_id NOT NULL,
			changed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, c.changelog()),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_update AFTER UPDATE ON %s
		BEGIN
			INSERT INTO %s (row_id) VALUES (NEW.%s);
		END`, c.changelog(), c.table, c.changelog(), c.idCol),
	}
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: bootstrap %s: %w", domain.ErrConnectorValidation, c.table, err)
		}
	}

	c.bootstrapped = true
	cfg.SetParam(domain.ParamBootstrapped, "true")
	return nil
}

// FetchBatch returns new rows after the cursor, followed by rows updated
// since the cursor's changelog position when change tracking is set up.
func (c *Connector) FetchBatch(ctx context.Context, cur string) (*domain.Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	pos, err := DecodeCursor(cur)
	if err != nil {
		return nil, err
	}

	records, err := c.newRows(ctx, pos)
	if err != nil {
		return nil, err
	}
	hasMore := len(records) == c.batchSize

	if remaining := c.batchSize - len(records); c.bootstrapped && remaining > 0 {
		changed, err := c.changedRows(ctx, pos, remaining)
		if err != nil {
			return nil, err
		}
		hasMore = hasMore || len(changed) == remaining
		records = mergeRecords(records, changed)
	}

	if len(records) == 0 {
		return &domain.Batch{NextCursor: cur}, nil
	}

	next, err := pos.Encode()
	if err != nil {
		return nil, err
	}
	return &domain.Batch{Records: records, NextCursor: next, HasMore: hasMore}, nil
}

// newRows reads rows with a key above the cursor and advances pos.
func (c *Connector) newRows(ctx context.Context, pos *Cursor) ([]domain.RawRecord, error) {
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s", c.idCol, c.titleCol, c.contentCol, c.table)
	var args []any
	if pos.LastID != "" {
		query += fmt.Sprintf(" WHERE %s > ?", c.idCol)
		args = append(args, pos.lastIDArg())
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT ?", c.idCol)
	args = append(args, c.batchSize)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var id any
		var title sql.NullString
		var content []byte
		if err := rows.Scan(&id, &title, &content); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		key, numeric := formatID(id)
		records = append(records, c.record(key, title, content))
		pos.LastID, pos.NumericID = key, numeric
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", c.table, err)
	}
	return records, nil
}

// changedRows reads updated rows after the cursor's changelog position and
// advances pos. Rows deleted since the update are not returned.
func (c *Connector) changedRows(ctx context.Context, pos *Cursor, limit int) ([]domain.RawRecord, error) {
	query := fmt.Sprintf(`SELECT l.seq, t.%s, t.%s, t.%s
		FROM %s l JOIN %s t ON t.%s = l.row_id
		WHERE l.seq > ? ORDER BY l.seq LIMIT ?`,
		c.idCol, c.titleCol, c.contentCol, c.changelog(), c.table, c.idCol)

	rows, err := c.db.QueryContext(ctx, query, pos.LastChangeSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.changelog(), err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var seq int64
		var id any
		var title sql.NullString
		var content []byte
		if err := rows.Scan(&seq, &id, &title, &content); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.changelog(), err)
		}
		key, _ := formatID(id)
		records = append(records, c.record(key, title, content))
		pos.LastChangeSeq = seq
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", c.changelog(), err)
	}
	return records, nil
}

func (c *Connector) record(key string, title sql.NullString, content []byte) domain.RawRecord {
	if content == nil {
		content = []byte{}
	}
	rec := domain.RawRecord{
		ID:      key,
		Title:   title.String,
		Size:    int64(len(content)),
		Content: content,
		URL:     fmt.Sprintf("sql://%s/%s", c.table, key),
		Metadata: map[string]any{
			"table": c.table,
		},
	}
	if rec.Title == "" {
		rec.Title = c.table + " " + key
	}
	return rec
}

// mergeRecords appends changed rows, keeping one record per key. The later
// read wins; both read the current row so their content is the same.
func mergeRecords(rows, changed []domain.RawRecord) []domain.RawRecord {
	if len(changed) == 0 {
		return rows
	}
	index := make(map[string]int, len(rows)+len(changed))
	out := make([]domain.RawRecord, 0, len(rows)+len(changed))
	for _, rec := range append(rows, changed...) {
		if i, ok := index[rec.ID]; ok {
			out[i] = rec
			continue
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}

// formatID renders a scanned key and reports whether it is an integer.
func formatID(v any) (string, bool) {
	switch id := v.(type) {
	case int64:
		return strconv.FormatInt(id, 10), true
	case []byte:
		return string(id), false
	case string:
		return id, false
	case time.Time:
		return id.UTC().Format(time.RFC3339Nano), false
	default:
		return fmt.Sprint(id), false
	}
}

// RawBytes returns the content column read with the record.
func (c *Connector) RawBytes(_ context.Context, rec *domain.RawRecord) ([]byte, error) {
	if !rec.HasInlineContent() {
		return nil, fmt.Errorf("%w: sql record %s has no content", domain.ErrRecordDecode, rec.ID)
	}
	return rec.Content, nil
}

// Close closes the database handle.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

func (c *Connector) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectorClosed
	}
	return nil
}
