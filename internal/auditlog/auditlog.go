// Package auditlog implements the optional audit-log Collector: a sqlx-
// backed MySQL/TiDB sink that records one row per converted event for
// installations that want a durable trail of what the converter did,
// supplementing the core in-memory/stream collectors in internal/collector.
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/logging"
)

// Config holds the connection parameters for the audit-log database.
type Config struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSL      bool
}

// Connect opens a pooled connection to the audit-log database, following
// the teacher's connection-pool settings (tasks/tidb_queries.go's
// ConnectTiDB).
func Connect(cfg Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	if cfg.SSL {
		dsn += "&tls=true"
	}

	logging.Info("connecting to audit-log database",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, errs.NewIoError("connect audit-log database", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Collector is a collector.Collector that persists one row per collected
// event to a "converted_events" table, keyed by a caller-supplied
// document id. It does not implement query-document result wrapping
// itself -- SetSubscriptionID/SetQueryName are recorded but not
// otherwise acted on, matching the sink-only role spec.md §4.3 assigns
// to Collector implementations that don't also drive re-serialisation.
type Collector struct {
	db         *sqlx.DB
	documentID string

	dctx    epcis.DocumentContext
	ordinal int
}

// New returns a Collector that writes through db. documentID identifies
// the document being converted (e.g. a request id or filename) and is
// stored alongside each event row so rows from concurrent conversions
// don't interleave.
func New(db *sqlx.DB, documentID string) *Collector {
	return &Collector{db: db, documentID: documentID}
}

func (c *Collector) Start(dctx epcis.DocumentContext) error {
	c.dctx = dctx
	c.ordinal = 0
	return nil
}

func (c *Collector) StartSingleEvent(dctx epcis.DocumentContext) error {
	c.dctx = dctx
	c.ordinal = 0
	return nil
}

func (c *Collector) Collect(ev *epcis.Event) error {
	return c.insert(ev)
}

func (c *Collector) CollectSingleEvent(ev *epcis.Event) error {
	return c.insert(ev)
}

func (c *Collector) insert(ev *epcis.Event) error {
	body, err := json.Marshal(ev.Fields)
	if err != nil {
		return errs.NewConversionError("marshal event body for audit log", err)
	}

	const query = `
		INSERT INTO converted_events (document_id, event_ordinal, event_type, event_body, date_created)
		VALUES (?, ?, ?, ?, ?)`

	_, err = c.db.ExecContext(context.Background(), query,
		c.documentID, c.ordinal, string(ev.Type), body, time.Now().UTC())
	if err != nil {
		return errs.NewIoError("insert audit log row", err)
	}
	c.ordinal++
	return nil
}

func (c *Collector) End() error            { return nil }
func (c *Collector) EndSingleEvent() error { return nil }

func (c *Collector) SetIsEpcisDocument(b bool)   { c.dctx.IsEpcisDocument = b }
func (c *Collector) SetSubscriptionID(id string) { c.dctx.SubscriptionID = id }
func (c *Collector) SetQueryName(name string)    { c.dctx.QueryName = name }
func (c *Collector) IsEpcisDocument() bool       { return c.dctx.IsEpcisDocument }

// Get always returns nil: the audit log is a sink, not a result-producing
// collector (spec §4.3's distinction between stream/list collectors and
// write-only sinks).
func (c *Collector) Get() (any, error) { return nil, nil }

func (c *Collector) Close() error { return nil }

// EventRow mirrors one row of the converted_events table.
type EventRow struct {
	DocumentID   string    `db:"document_id"`
	EventOrdinal int       `db:"event_ordinal"`
	EventType    string    `db:"event_type"`
	EventBody    string    `db:"event_body"`
	DateCreated  time.Time `db:"date_created"`
}

// QueryByDocumentID fetches every audit-log row recorded for a document,
// ordered the way they were collected, adapted from the teacher's
// QueryShipmentEventsByCaptureID parameterized-query style.
func QueryByDocumentID(ctx context.Context, db *sqlx.DB, documentID string) ([]EventRow, error) {
	const query = `
		SELECT document_id, event_ordinal, event_type, event_body, date_created
		FROM converted_events
		WHERE document_id = ?
		ORDER BY event_ordinal ASC`

	var rows []EventRow
	if err := db.SelectContext(ctx, &rows, query, documentID); err != nil {
		return nil, errs.NewIoError("query audit log rows", err)
	}
	return rows, nil
}

// DocumentExists reports whether any audit-log row has been recorded for
// documentID, adapted from the teacher's CheckEventExists.
func DocumentExists(ctx context.Context, db *sqlx.DB, documentID string) (bool, error) {
	var count int
	const query = `SELECT COUNT(*) FROM converted_events WHERE document_id = ?`
	if err := db.GetContext(ctx, &count, query, documentID); err != nil {
		return false, errs.NewIoError("check audit log document existence", err)
	}
	return count > 0, nil
}
