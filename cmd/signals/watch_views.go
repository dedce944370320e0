package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// listItem implements list.Item for the interval and preset lists.
type listItem struct {
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

func newSelectList(title string, items []list.Item) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewIntervalList creates the list of streamable candle intervals.
func NewIntervalList() list.Model {
	items := []list.Item{
		listItem{name: string(datasource.Interval1m), description: "1 minute candles"},
		listItem{name: string(datasource.Interval5m), description: "5 minute candles"},
		listItem{name: string(datasource.Interval15m), description: "15 minute candles"},
		listItem{name: string(datasource.Interval30m), description: "30 minute candles"},
		listItem{name: string(datasource.Interval1h), description: "1 hour candles"},
		listItem{name: string(datasource.Interval4h), description: "4 hour candles"},
		listItem{name: string(datasource.Interval6h), description: "6 hour candles"},
		listItem{name: string(datasource.Interval8h), description: "8 hour candles"},
		listItem{name: string(datasource.Interval12h), description: "12 hour candles"},
		listItem{name: string(datasource.Interval1d), description: "1 day candles"},
		listItem{name: string(datasource.Interval1w), description: "1 week candles"},
	}

	return newSelectList("Select Interval", items)
}

// NewPresetList creates the list of built-in strategies.
func NewPresetList() list.Model {
	names := strategy.PresetNames()
	items := make([]list.Item, 0, len(names))

	for _, name := range names {
		description := name

		if preset, err := strategy.Preset(name); err == nil {
			description = preset.Name
		}

		items = append(items, listItem{name: name, description: description})
	}

	return newSelectList("Select Strategy", items)
}

// NewSymbolInput creates a new text input for symbol entry.
func NewSymbolInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "BTCUSDT,ETHUSDT,BNBUSDT"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50
	ti.Prompt = "> "

	return ti
}

// ParseSymbols parses comma-separated symbols into a slice.
func ParseSymbols(input string) []string {
	parts := strings.Split(input, ",")
	symbols := make([]string, 0, len(parts))

	for _, p := range parts {
		s := strings.TrimSpace(strings.ToUpper(p))
		if s != "" {
			symbols = append(symbols, s)
		}
	}

	return symbols
}

// NewSignalTable creates the per-symbol table of prices and latest signals.
func NewSignalTable() table.Model {
	columns := []table.Column{
		{Title: "Symbol", Width: 12},
		{Title: "Price", Width: 18},
		{Title: "Signal", Width: 7},
		{Title: "Strength", Width: 10},
		{Title: "Conf", Width: 6},
		{Title: "Market", Width: 10},
		{Title: "Time", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// symbolRow is the watch state of one symbol.
type symbolRow struct {
	candle    types.Candle
	prevClose float64
	signal    *types.StrategySignal
}

// UpdateTableRows fills the table from the watch state, sorted by symbol.
func UpdateTableRows(t table.Model, rows map[string]*symbolRow) table.Model {
	symbols := make([]string, 0, len(rows))
	for symbol := range rows {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	tableRows := make([]table.Row, 0, len(rows))

	for _, symbol := range symbols {
		row := rows[symbol]
		signalType, strength, confidence, market := "-", "-", "-", "-"

		if row.signal != nil {
			signalType = string(row.signal.Type)
			strength = string(row.signal.Strength)
			confidence = fmt.Sprintf("%.0f%%", row.signal.Confidence*100)
			market = string(row.signal.Metadata.MarketCondition)
		}

		tableRows = append(tableRows, table.Row{
			symbol,
			FormatPriceWithColor(row.candle.Close, row.prevClose),
			signalType,
			strength,
			confidence,
			market,
			row.candle.Time.Format("15:04:05"),
		})
	}

	t.SetRows(tableRows)

	return t
}
