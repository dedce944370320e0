package backtest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// SignalsWriter stores signals in an in-memory DuckDB table and exports them to Parquet.
type SignalsWriter struct {
	db         *sql.DB
	outputPath string
	mu         sync.Mutex
}

// NewSignalsWriter creates a new SignalsWriter.
// outputPath is the full path to the parquet file.
func NewSignalsWriter(outputPath string) *SignalsWriter {
	return &SignalsWriter{
		db:         nil,
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize creates the output directory and the signals table.
func (w *SignalsWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create results directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP,
			symbol TEXT,
			timeframe TEXT,
			strategy_name TEXT,
			type TEXT,
			strength TEXT,
			confidence DOUBLE,
			price DOUBLE,
			stop_loss DOUBLE,
			take_profit DOUBLE,
			risk_reward DOUBLE,
			market_condition TEXT,
			session TEXT,
			reasoning TEXT,
			entry_conditions TEXT,
			indicators TEXT
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create signals table", err)
	}

	return nil
}

// Write stores a signal. Reasoning and entry conditions are joined with "; ",
// indicator readings are stored as JSON.
func (w *SignalsWriter) Write(signal types.StrategySignal) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "writer not initialized")
	}

	indicators, err := json.Marshal(signal.Indicators)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidReading, "failed to encode indicator readings", err)
	}

	_, err = w.db.Exec(`
		INSERT INTO signals (id, timestamp, symbol, timeframe, strategy_name, type, strength, confidence, price,
			stop_loss, take_profit, risk_reward, market_condition, session, reasoning, entry_conditions, indicators)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, signal.ID, signal.Timestamp.UTC(), signal.Metadata.Symbol, signal.Metadata.Timeframe, signal.Metadata.StrategyName,
		string(signal.Type), string(signal.Strength), signal.Confidence, signal.Price,
		nullable(signal.Metadata.StopLoss), nullable(signal.Metadata.TakeProfit), nullable(signal.Metadata.RiskReward),
		string(signal.Metadata.MarketCondition), string(signal.Metadata.Session),
		strings.Join(signal.Reasoning, "; "), strings.Join(signal.Metadata.EntryConditions, "; "), string(indicators))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert signal %s", signal.ID)
	}

	return nil
}

// Flush exports the stored signals ordered by time.
func (w *SignalsWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "writer not initialized")
	}

	quoted := strings.ReplaceAll(w.outputPath, "'", "''")

	_, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM signals ORDER BY timestamp, id) TO '%s' (FORMAT PARQUET)`, quoted))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to export signals to %s", w.outputPath)
	}

	return nil
}

// Count returns the number of stored signals.
func (w *SignalsWriter) Count() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "writer not initialized")
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM signals").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count signals", err)
	}

	return count, nil
}

// OutputPath returns the parquet file path.
func (w *SignalsWriter) OutputPath() string {
	return w.outputPath
}

// Close releases database resources.
func (w *SignalsWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to close database", err)
		}

		w.db = nil
	}

	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}
