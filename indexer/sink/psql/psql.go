// Package psql implements an event sink backed by a PostgreSQL database.
package psql

import (
	"context"
	"database/sql"
	_ "embed" // schema.sql
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adlio/schema"
	"github.com/gogo/protobuf/proto"

	// Register the Postgres database driver.
	_ "github.com/lib/pq"

	"github.com/constellation-lab/constellation-zkevm/indexer"
	"github.com/constellation-lab/constellation-zkevm/types"
)

const (
	tableBlocks     = "blocks"
	tableEvents     = "events"
	tableAttributes = "attributes"
	driverName      = "postgres"

	schemaMigrationID = "2024-06-01 constellation event schema"
)

//go:embed schema.sql
var schemaSQL string

var _ indexer.EventSink = (*EventSink)(nil)

// EventSink is an indexer backend storing event records in a PostgreSQL
// database using the schema defined in schema.sql.
type EventSink struct {
	store   *sql.DB
	chainID string
}

// NewEventSink constructs an event sink associated with the PostgreSQL
// database specified by connStr. Events written to the sink are attributed to
// the specified chainID.
func NewEventSink(connStr, chainID string) (*EventSink, error) {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, err
	}
	return &EventSink{
		store:   db,
		chainID: chainID,
	}, nil
}

// DB returns the underlying Postgres connection used by the sink.
// This is exported to support testing.
func (es *EventSink) DB() *sql.DB { return es.store }

// Type returns the structure type for this sink, which is Postgres.
func (es *EventSink) Type() indexer.EventSinkType { return indexer.PSQL }

// Migrations returns the schema of the sink as a migration set.
func Migrations() []*schema.Migration {
	return []*schema.Migration{{
		ID:     schemaMigrationID,
		Script: schemaSQL,
	}}
}

// Migrate installs the schema unless it is already in place.
func (es *EventSink) Migrate() error {
	return schema.NewMigrator().Apply(es.store, Migrations())
}

// runInTransaction executes query in a fresh database transaction.
// If query reports an error, the transaction is rolled back and the
// error from query is reported to the caller.
// Otherwise, the result of committing the transaction is returned.
func runInTransaction(ctx context.Context, db *sql.DB, query func(*sql.Tx) error) error {
	dbtx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := query(dbtx); err != nil {
		_ = dbtx.Rollback() // report the initial error, not the rollback
		return err
	}
	return dbtx.Commit()
}

// queryWithID executes the specified SQL query with the given arguments,
// expecting a single-row, single-column result containing an ID. If the query
// succeeds, the ID from the result is returned.
func queryWithID(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// IndexEvents indexes the records of one committed block. A block that was
// already indexed is skipped.
func (es *EventSink) IndexEvents(ctx context.Context, b indexer.Batch) error {
	chainID := b.ChainID
	if chainID == "" {
		chainID = es.chainID
	}
	ts := time.Now().UTC()

	return runInTransaction(ctx, es.store, func(dbtx *sql.Tx) error {
		blockID, err := queryWithID(ctx, dbtx, `
INSERT INTO `+tableBlocks+` (height, chain_id, created_at)
  VALUES ($1, $2, $3)
  ON CONFLICT DO NOTHING
  RETURNING rowid;
`, b.Height, chainID, ts)
		if errors.Is(err, sql.ErrNoRows) {
			return nil // we already saw this block
		} else if err != nil {
			return fmt.Errorf("indexing block header: %w", err)
		}

		for _, rec := range b.Records {
			if err := insertRecord(ctx, dbtx, blockID, rec); err != nil {
				return fmt.Errorf("indexing event %d: %w", rec.Seq, err)
			}
		}
		return nil
	})
}

func insertRecord(ctx context.Context, dbtx *sql.Tx, blockID int64, rec types.EventRecord) error {
	data, err := json.Marshal(rec.Event)
	if err != nil {
		return err
	}
	ev := indexer.ABCIEvent(rec)
	abciBz, err := proto.Marshal(&ev)
	if err != nil {
		return err
	}
	var optionID sql.NullInt64
	if oe, ok := rec.Event.(types.OptionEvent); ok {
		optionID = sql.NullInt64{Int64: int64(oe.OptionID()), Valid: true}
	}

	eventID, err := queryWithID(ctx, dbtx, `
INSERT INTO `+tableEvents+` (block_id, seq, type, option_id, data, abci_event)
  VALUES ($1, $2, $3, $4, $5, $6)
  RETURNING rowid;
`, blockID, int64(rec.Seq), rec.Name(), optionID, data, abciBz)
	if err != nil {
		return err
	}

	for _, attr := range ev.Attributes {
		compositeKey := rec.Name() + "." + string(attr.Key)
		if _, err := dbtx.ExecContext(ctx, `
INSERT INTO `+tableAttributes+` (event_id, key, composite_key, value)
  VALUES ($1, $2, $3, $4);
`, eventID, string(attr.Key), compositeKey, string(attr.Value)); err != nil {
			return err
		}
	}
	return nil
}

// Stop closes the underlying PostgreSQL database.
func (es *EventSink) Stop() error { return es.store.Close() }
