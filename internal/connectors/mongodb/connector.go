package mongodb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Defaults for absent parameters.
const (
	DefaultContentField = "content"
	DefaultTitleField   = "title"
	DefaultBatchSize    = 100
)

// metaFileID is the record metadata key holding a GridFS file id.
const metaFileID = "file_id"

// Config holds the connector settings parsed from a connection.
type Config struct {
	URI          string
	Database     string
	Collection   string
	Bucket       string
	ContentField string
	TitleField   string
	BatchSize    int
}

// GridFS reports whether the connector reads a GridFS bucket.
func (c *Config) GridFS() bool {
	return c.Bucket != ""
}

// ParseConfig extracts the connector settings from a connection config.
func ParseConfig(cfg *domain.ConnectionConfig, batchSize int) (*Config, error) {
	c := &Config{
		URI:          cfg.Param(domain.ParamURI),
		Database:     cfg.Param(domain.ParamDatabase),
		Collection:   cfg.Param(domain.ParamCollection),
		Bucket:       cfg.Param(domain.ParamBucket),
		ContentField: cfg.ContentField,
		TitleField:   cfg.TitleField,
		BatchSize:    batchSize,
	}
	if c.ContentField == "" {
		c.ContentField = DefaultContentField
	}
	if c.TitleField == "" {
		c.TitleField = DefaultTitleField
	}
	if n, err := strconv.Atoi(cfg.Param(domain.ParamBatchSize)); err == nil && n > 0 {
		c.BatchSize = n
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}

	switch {
	case c.URI == "":
		return nil, fmt.Errorf("%w: mongodb requires %q", domain.ErrInvalidConfig, domain.ParamURI)
	case c.Database == "":
		return nil, fmt.Errorf("%w: mongodb requires %q", domain.ErrInvalidConfig, domain.ParamDatabase)
	case c.Collection == "" && c.Bucket == "":
		return nil, fmt.Errorf("%w: mongodb requires %q or %q",
			domain.ErrInvalidConfig, domain.ParamCollection, domain.ParamBucket)
	}
	return c, nil
}

// Connector reads a MongoDB collection or GridFS bucket.
type Connector struct {
	config *Config
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Entry

	mu     sync.Mutex
	closed bool
}

// New connects to the deployment named by cfg. The driver dials lazily so
// an unreachable server surfaces in Validate.
func New(ctx context.Context, cfg *domain.ConnectionConfig, batchSize int) (*Connector, error) {
	config, err := ParseConfig(cfg, batchSize)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: mongodb connect: %w", domain.ErrInvalidConfig, err)
	}
	return &Connector{
		config: config,
		client: client,
		db:     client.Database(config.Database),
		log:    logger.With(logger.Fields{"kind": domain.KindMongoDB, "connection": cfg.ID}),
	}, nil
}

// Kind returns the source kind.
func (c *Connector) Kind() domain.SourceKind {
	return domain.KindMongoDB
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsBinary: c.config.GridFS(),
		RequiresAuth:   true,
	}
}

// Validate pings the primary and checks the collection exists.
func (c *Connector) Validate(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: mongodb ping: %w", domain.ErrConnectorValidation, err)
	}

	names, err := c.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: c.collectionName()}})
	if err != nil {
		return fmt.Errorf("%w: list collections: %w", domain.ErrConnectorValidation, err)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: collection %s.%s does not exist",
			domain.ErrConnectorValidation, c.config.Database, c.collectionName())
	}
	return nil
}

// collectionName is the collection paged by _id.
func (c *Connector) collectionName() string {
	if c.config.GridFS() {
		return c.config.Bucket + ".files"
	}
	return c.config.Collection
}

// FetchBatch returns documents with an _id above the cursor, in _id order.
// Documents that cannot be mapped are logged and stepped over.
func (c *Connector) FetchBatch(ctx context.Context, cur string) (*domain.Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	pos, err := DecodeCursor(cur)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(c.config.BatchSize))
	for {
		filter, err := pos.Filter()
		if err != nil {
			return nil, err
		}
		rows, err := c.db.Collection(c.collectionName()).Find(ctx, filter, opts)
		if err != nil {
			return nil, wrapError(err)
		}
		p, err := c.collect(ctx, rows)
		rows.Close(ctx)
		if err != nil {
			return nil, err
		}
		if p.lastID == nil {
			return &domain.Batch{NextCursor: cur}, nil
		}
		if err := pos.SetLastID(p.lastID); err != nil {
			return nil, err
		}
		full := p.scanned == c.config.BatchSize
		// A page of skipped documents must not end the run with an
		// empty batch, so read on until something maps or the tail.
		if len(p.records) == 0 && full {
			continue
		}
		if len(p.records) == 0 {
			// An empty batch keeps its cursor; a skipped tail is read
			// again next run.
			return &domain.Batch{NextCursor: cur}, nil
		}
		next, err := pos.Encode()
		if err != nil {
			return nil, err
		}
		return &domain.Batch{Records: p.records, NextCursor: next, HasMore: full}, nil
	}
}

// docCursor is the part of *mongo.Cursor a page is read through.
type docCursor interface {
	Next(ctx context.Context) bool
	Decode(v any) error
	Err() error
}

type page struct {
	records []domain.RawRecord
	lastID  any
	scanned int
}

// collect maps one page of documents. lastID is the highest readable _id
// whether or not its document mapped.
func (c *Connector) collect(ctx context.Context, rows docCursor) (page, error) {
	var p page
	for rows.Next(ctx) {
		p.scanned++
		var doc bson.M
		if err := rows.Decode(&doc); err != nil {
			var h idHolder
			if rows.Decode(&h) != nil || h.ID == nil {
				return p, fmt.Errorf("%w: mongodb document without readable _id: %w", domain.ErrRecordDecode, err)
			}
			c.log.Warn("skipping document %s: %v", IDString(h.ID), err)
			p.lastID = h.ID
			continue
		}
		p.lastID = doc["_id"]
		rec, err := c.record(doc)
		if err != nil {
			c.log.Warn("skipping document %s: %v", IDString(doc["_id"]), err)
			continue
		}
		p.records = append(p.records, rec)
	}
	if err := rows.Err(); err != nil {
		return p, wrapError(err)
	}
	return p, nil
}

func (c *Connector) record(doc bson.M) (domain.RawRecord, error) {
	id := doc["_id"]
	key := IDString(id)
	if c.config.GridFS() {
		return fileRecord(c.config, key, doc), nil
	}

	content, mimeType, err := FieldBytes(doc[c.config.ContentField])
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("%w: mongodb field %s: %w",
			domain.ErrRecordDecode, c.config.ContentField, err)
	}
	title := FieldString(doc[c.config.TitleField])
	if title == "" {
		title = c.config.Collection + " " + key
	}
	return domain.RawRecord{
		ID:         key,
		Title:      title,
		MIMEType:   mimeType,
		Size:       int64(len(content)),
		ModifiedAt: ModifiedAt(id),
		Content:    content,
		URL:        fmt.Sprintf("mongodb://%s/%s/%s", c.config.Database, c.config.Collection, key),
		Metadata: map[string]any{
			"collection": c.config.Collection,
		},
	}, nil
}

// fileRecord maps a GridFS files document. The bytes are not read here.
func fileRecord(cfg *Config, key string, doc bson.M) domain.RawRecord {
	name := FieldString(doc["filename"])
	rec := domain.RawRecord{
		ID:    key,
		Name:  name,
		Title: name,
		URL:   fmt.Sprintf("gridfs://%s/%s/%s", cfg.Database, cfg.Bucket, key),
		Metadata: map[string]any{
			"bucket":   cfg.Bucket,
			metaFileID: doc["_id"],
		},
	}
	if rec.Title == "" {
		rec.Title = cfg.Bucket + " " + key
	}
	switch n := doc["length"].(type) {
	case int32:
		rec.Size = int64(n)
	case int64:
		rec.Size = n
	}
	if dt, ok := doc["uploadDate"].(interface{ Time() time.Time }); ok {
		rec.ModifiedAt = dt.Time().UTC()
	}
	if meta, ok := doc["metadata"].(bson.M); ok {
		if ct, ok := meta["contentType"].(string); ok {
			rec.MIMEType = ct
		}
	}
	if ct, ok := doc["contentType"].(string); ok && rec.MIMEType == "" {
		rec.MIMEType = ct
	}
	return rec
}

// RawBytes returns inline content, or streams a GridFS file.
func (c *Connector) RawBytes(ctx context.Context, rec *domain.RawRecord) ([]byte, error) {
	if rec.HasInlineContent() {
		return rec.Content, nil
	}
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if !c.config.GridFS() {
		return nil, fmt.Errorf("%w: mongodb record %s has no content", domain.ErrRecordDecode, rec.ID)
	}

	fileID, ok := rec.Metadata[metaFileID]
	if !ok {
		return nil, fmt.Errorf("%w: gridfs record %s has no file id", domain.ErrRecordDecode, rec.ID)
	}
	bucket, err := gridfs.NewBucket(c.db, options.GridFSBucket().SetName(c.config.Bucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}

	stream, err := bucket.OpenDownloadStream(fileID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: gridfs file %s: %w", domain.ErrRecordDecode, rec.ID, err)
		}
		return nil, wrapError(err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: gridfs read %s: %w", domain.ErrRecordDecode, rec.ID, err)
	}
	return data, nil
}

// Close disconnects the client.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func (c *Connector) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectorClosed
	}
	return nil
}

// wrapError classifies driver errors. Network failures and timeouts are
// transient; authentication failures are fatal.
func wrapError(err error) error {
	var cmdErr mongo.CommandError
	switch {
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return fmt.Errorf("%w: mongodb: %w", domain.ErrTransient, err)
	case errors.As(err, &cmdErr) && (cmdErr.Code == 13 || cmdErr.Code == 18):
		return fmt.Errorf("%w: mongodb: %w", domain.ErrAuthInvalid, err)
	default:
		return fmt.Errorf("mongodb: %w", err)
	}
}
