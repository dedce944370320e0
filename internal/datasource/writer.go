package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// CandleWriter collects candles and exports them to a file.
type CandleWriter interface {
	// Initialize sets up the writer.
	Initialize() error
	// Write stores a single candle.
	Write(candle types.Candle) error
	// Finalize commits the written candles and exports them, returning the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
}

// DuckDBWriter buffers candles in an in-memory DuckDB table and exports them to
// Parquet, or CSV when the output path ends in .csv.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
}

// NewDuckDBWriter creates a writer that exports to outputPath.
func NewDuckDBWriter(outputPath string) *DuckDBWriter {
	return &DuckDBWriter{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		outputPath: outputPath,
	}
}

// Initialize implements CandleWriter.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write implements CandleWriter. Invalid candles are rejected.
func (w *DuckDBWriter) Write(candle types.Candle) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "writer not initialized")
	}

	if err := candle.Validate(); err != nil {
		return err
	}

	_, err := w.stmt.Exec(candle.Time.UTC(), candle.Symbol, candle.Open, candle.High, candle.Low, candle.Close, candle.Volume)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert candle", err)
	}

	return nil
}

// Finalize implements CandleWriter.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeDataSourceUnavailable, "writer not initialized")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit candles", err)
	}

	w.tx = nil

	format := "FORMAT PARQUET"
	if strings.EqualFold(filepath.Ext(w.outputPath), ".csv") {
		format = "FORMAT CSV, HEADER"
	}

	quoted := strings.ReplaceAll(w.outputPath, "'", "''")

	_, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY time, symbol) TO '%s' (%s)`, quoted, format))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to export candles to %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close implements CandleWriter.
func (w *DuckDBWriter) Close() error {
	var firstErr error

	if w.stmt != nil {
		firstErr = w.stmt.Close()
		w.stmt = nil
	}

	if w.tx != nil {
		w.tx.Rollback()
		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.db = nil
	}

	return firstErr
}
