// Package export copies loaded datasets into PostgreSQL.
//
// Every record becomes one row of a table shaped like:
//
//	CREATE TABLE dataset_records (
//	    dataset   text  NOT NULL,
//	    row_index int   NOT NULL,
//	    record    jsonb NOT NULL,
//	    PRIMARY KEY (dataset, row_index)
//	);
//
// Each dataset is replaced wholesale: its old rows are deleted and the new ones
// streamed in with COPY, all inside one transaction.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/dataengine/internal/dataset"
	"github.com/JonMunkholm/dataengine/internal/logging"
)

// DefaultTable is the export table name.
const DefaultTable = "dataset_records"

var copyColumns = []string{"dataset", "row_index", "record"}

// DBTX is the subset of pgx.Tx used by an export.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Result summarizes an export.
type Result struct {
	Table    string
	Rows     map[string]int64 // Rows copied per dataset
	Duration time.Duration
}

// Exporter writes datasets to a PostgreSQL table.
type Exporter struct {
	Table string
}

// New returns an Exporter for table, or DefaultTable if empty.
func New(table string) *Exporter {
	if table == "" {
		table = DefaultTable
	}
	return &Exporter{Table: table}
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return pool, nil
}

// Run exports datasets in a single transaction on pool.
func (e *Exporter) Run(ctx context.Context, pool *pgxpool.Pool, datasets []*dataset.Dataset) (*Result, error) {
	var result *Result
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var err error
		result, err = e.Write(ctx, tx, datasets)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Write creates the table if needed and replaces each dataset's rows.
// The caller owns the transaction.
func (e *Exporter) Write(ctx context.Context, tx DBTX, datasets []*dataset.Dataset) (*Result, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)
	table := pgx.Identifier{e.Table}

	if _, err := tx.Exec(ctx, createTableSQL(table)); err != nil {
		return nil, errors.Wrapf(err, "create table %s", e.Table)
	}

	result := &Result{Table: e.Table, Rows: make(map[string]int64, len(datasets))}
	for _, ds := range datasets {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE dataset = $1", table.Sanitize()), ds.Name()); err != nil {
			return nil, errors.Wrapf(err, "clear %s", ds.Name())
		}

		n, err := tx.CopyFrom(ctx, table, copyColumns, recordSource(ds))
		if err != nil {
			return nil, errors.Wrapf(err, "copy %s", ds.Name())
		}
		result.Rows[ds.Name()] = n
		logger.Info("dataset exported", "dataset", ds.Name(), "rows", n)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func createTableSQL(table pgx.Identifier) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	dataset   text  NOT NULL,
	row_index int   NOT NULL,
	record    jsonb NOT NULL,
	PRIMARY KEY (dataset, row_index)
)`, table.Sanitize())
}

// recordSource streams a dataset's records as COPY rows.
func recordSource(ds *dataset.Dataset) pgx.CopyFromSource {
	records := ds.Records()
	return pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		doc, err := json.Marshal(records[i])
		if err != nil {
			return nil, errors.Wrapf(err, "encode record %d", i)
		}
		return []any{ds.Name(), i, json.RawMessage(doc)}, nil
	})
}
