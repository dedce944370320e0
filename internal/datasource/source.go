package datasource

import (
	"database/sql"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

const candleView = "market_data"

var candleColumns = []string{"time", "symbol", "open", "high", "low", "close", "volume"}

// Query narrows the candles read from a source. Unset fields do not filter.
type Query struct {
	Symbol optional.Option[string]
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
}

// AllCandles matches every candle.
func AllCandles() Query {
	return Query{
		Symbol: optional.None[string](),
		Start:  optional.None[time.Time](),
		End:    optional.None[time.Time](),
	}
}

func (q Query) where() squirrel.And {
	conditions := squirrel.And{}

	if symbol, err := q.Symbol.Take(); err == nil {
		conditions = append(conditions, squirrel.Eq{"symbol": symbol})
	}

	if start, err := q.Start.Take(); err == nil {
		conditions = append(conditions, squirrel.GtOrEq{"time": start})
	}

	if end, err := q.End.Take(); err == nil {
		conditions = append(conditions, squirrel.LtOrEq{"time": end})
	}

	return conditions
}

// CandleSource replays recorded candles in time order.
type CandleSource interface {
	// Initialize loads a CSV or Parquet file with time, symbol, open, high, low, close and volume columns.
	Initialize(path string) error
	// ReadAll yields the matching candles ordered by time.
	ReadAll(query Query) iter.Seq2[types.Candle, error]
	// Resample aggregates the matching candles into a coarser interval.
	Resample(query Query, interval Interval) ([]types.Candle, error)
	// Count returns the number of matching candles.
	Count(query Query) (int, error)
	// Symbols lists the distinct symbols in the file.
	Symbols() ([]string, error)
	// Close releases the database.
	Close() error
}

// DuckDBSource reads candle files through an in-process DuckDB view.
type DuckDBSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBSource opens a DuckDB database. An empty dbPath keeps it in memory.
func NewDuckDBSource(dbPath string, log *logger.Logger) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements CandleSource.
func (d *DuckDBSource) Initialize(path string) error {
	d.logger.Debug("Initializing candle source", zap.String("path", path))

	var reader string

	quoted := strings.ReplaceAll(path, "'", "''")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = fmt.Sprintf("read_csv_auto('%s', header = true)", quoted)
	case ".parquet":
		reader = fmt.Sprintf("read_parquet('%s')", quoted)
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported candle file %s, expected .csv or .parquet", path)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS ` + candleView); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW
	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s`, candleView, reader)
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load candles from %s", path)
	}

	return nil
}

// ReadAll implements CandleSource.
func (d *DuckDBSource) ReadAll(query Query) iter.Seq2[types.Candle, error] {
	return func(yield func(types.Candle, error) bool) {
		statement, args, err := d.sq.
			Select(candleColumns...).
			From(candleView).
			Where(query.where()).
			OrderBy("time ASC", "symbol ASC").
			ToSql()
		if err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)) //nolint:exhaustruct // error path

			return
		}

		rows, err := d.db.Query(statement, args...)
		if err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)) //nolint:exhaustruct // error path

			return
		}
		defer rows.Close()

		for rows.Next() {
			candle, err := scanCandle(rows)
			if !yield(candle, err) || err != nil {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err)) //nolint:exhaustruct // error path
		}
	}
}

// Resample implements CandleSource. Buckets are aligned by DuckDB's time_bucket.
func (d *DuckDBSource) Resample(query Query, interval Interval) ([]types.Candle, error) {
	minutes, err := interval.Minutes()
	if err != nil {
		return nil, err
	}

	statement, args, err := d.sq.
		Select(
			fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time) AS bucket", minutes),
			"symbol",
			"arg_min(open, time) AS open",
			"max(high) AS high",
			"min(low) AS low",
			"arg_max(close, time) AS close",
			"sum(volume) AS volume",
		).
		From(candleView).
		Where(query.where()).
		GroupBy("bucket", "symbol").
		OrderBy("bucket ASC", "symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build resample query", err)
	}

	rows, err := d.db.Query(statement, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to resample candles", err)
	}
	defer rows.Close()

	candles := make([]types.Candle, 0, 256)

	for rows.Next() {
		candle, err := scanCandle(rows)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err)
	}

	return candles, nil
}

// Count implements CandleSource.
func (d *DuckDBSource) Count(query Query) (int, error) {
	statement, args, err := d.sq.
		Select("COUNT(*)").
		From(candleView).
		Where(query.where()).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(statement, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// Symbols implements CandleSource.
func (d *DuckDBSource) Symbols() ([]string, error) {
	statement, args, err := d.sq.
		Select("DISTINCT symbol").
		From(candleView).
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build symbols query", err)
	}

	rows, err := d.db.Query(statement, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// Close implements CandleSource.
func (d *DuckDBSource) Close() error {
	return d.db.Close()
}

func scanCandle(rows *sql.Rows) (types.Candle, error) {
	var candle types.Candle

	err := rows.Scan(&candle.Time, &candle.Symbol, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume)
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err) //nolint:exhaustruct // error path
	}

	candle.Time = candle.Time.UTC()

	return candle, nil
}
