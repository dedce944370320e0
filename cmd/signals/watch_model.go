package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
)

// Application states.
const (
	StateSymbolInput = iota
	StateIntervalSelect
	StatePresetSelect
	StateSignalDisplay
)

// recentSignals is the number of signals listed under the table.
const recentSignals = 8

// Model is the Bubble Tea model of the live signal monitor.
type Model struct {
	state        int
	symbolInput  textinput.Model
	intervalList list.Model
	presetList   list.Model
	signalTable  table.Model
	rows         map[string]*symbolRow
	recent       []string
	symbols      []string
	interval     datasource.Interval
	preset       string
	err          error
	width        int
	height       int

	// Streaming control
	stream  candleStream
	updates chan tea.Msg
	cancel  context.CancelFunc
}

// NewModel creates a new Model reading candles from stream.
func NewModel(stream candleStream) Model {
	return Model{
		state:        StateSymbolInput,
		symbolInput:  NewSymbolInput(),
		intervalList: NewIntervalList(),
		presetList:   NewPresetList(),
		signalTable:  NewSignalTable(),
		rows:         make(map[string]*symbolRow),
		recent:       nil,
		symbols:      nil,
		interval:     "",
		preset:       "",
		err:          nil,
		width:        0,
		height:       0,
		stream:       stream,
		updates:      nil,
		cancel:       nil,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.stopStreaming()
			return m, tea.Quit
		case "q":
			// Only quit on 'q' if not in text input mode
			if m.state != StateSymbolInput {
				m.stopStreaming()
				return m, tea.Quit
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.intervalList.SetSize(msg.Width, msg.Height-4)
		m.presetList.SetSize(msg.Width, msg.Height-4)
		m.signalTable.SetWidth(msg.Width)
		m.signalTable.SetHeight(max(msg.Height-8-recentSignals, 3))
		return m, nil

	case CandleMsg:
		if m.state != StateSignalDisplay {
			return m, nil
		}
		row := m.row(msg.Candle.Symbol)
		if row.candle.Close != 0 {
			row.prevClose = row.candle.Close
		}
		row.candle = msg.Candle
		m.signalTable = UpdateTableRows(m.signalTable, m.rows)
		return m, m.waitForUpdate()

	case SignalMsg:
		if m.state != StateSignalDisplay {
			return m, nil
		}
		signal := msg.Signal
		m.row(signal.Metadata.Symbol).signal = &signal
		m.recent = append([]string{signal.Metadata.Symbol + " " + FormatSignal(signal)}, m.recent...)
		if len(m.recent) > recentSignals {
			m.recent = m.recent[:recentSignals]
		}
		m.signalTable = UpdateTableRows(m.signalTable, m.rows)
		return m, m.waitForUpdate()

	case StreamErrorMsg:
		m.err = msg.Err
		return m, m.waitForUpdate()

	case StreamStartedMsg:
		m.state = StateSignalDisplay
		return m, m.waitForUpdate()

	case streamEndedMsg:
		return m, nil
	}

	// Delegate to state-specific update
	switch m.state {
	case StateSymbolInput:
		return m.updateSymbolInput(msg)
	case StateIntervalSelect:
		return m.updateIntervalSelect(msg)
	case StatePresetSelect:
		return m.updatePresetSelect(msg)
	case StateSignalDisplay:
		return m.updateSignalDisplay(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateIntervalSelect:
		m.state = StateSymbolInput
		m.symbolInput.Focus()
		return m, textinput.Blink
	case StatePresetSelect:
		m.state = StateIntervalSelect
	case StateSignalDisplay:
		// Stop streaming and clear watched symbols
		m.stopStreaming()
		m.updates = nil
		m.rows = make(map[string]*symbolRow)
		m.recent = nil
		m.symbols = nil
		m.interval = ""
		m.preset = ""
		m.err = nil
		m.signalTable = UpdateTableRows(m.signalTable, m.rows)
		m.symbolInput.Reset()
		m.symbolInput.Focus()
		m.state = StateSymbolInput
		return m, textinput.Blink
	}

	return m, nil
}

func (m Model) updateSymbolInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		symbols := ParseSymbols(m.symbolInput.Value())
		if len(symbols) > 0 {
			m.symbols = symbols
			m.state = StateIntervalSelect
			m.symbolInput.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.symbolInput, cmd = m.symbolInput.Update(msg)
	return m, cmd
}

func (m Model) updateIntervalSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if item, ok := m.intervalList.SelectedItem().(listItem); ok {
			m.interval = datasource.Interval(item.name)
			m.state = StatePresetSelect
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.intervalList, cmd = m.intervalList.Update(msg)
	return m, cmd
}

func (m Model) updatePresetSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if item, ok := m.presetList.SelectedItem().(listItem); ok {
			m.preset = item.name
			return m.startStreaming()
		}
	}

	var cmd tea.Cmd
	m.presetList, cmd = m.presetList.Update(msg)
	return m, cmd
}

func (m Model) updateSignalDisplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.signalTable, cmd = m.signalTable.Update(msg)
	return m, cmd
}

func (m Model) row(symbol string) *symbolRow {
	row, ok := m.rows[symbol]
	if !ok {
		row = &symbolRow{} //nolint:exhaustruct // filled by the caller
		m.rows[symbol] = row
	}

	return row
}

// startStreaming creates one engine per symbol and feeds them from the stream
// in the background. Messages reach the model through m.updates.
func (m Model) startStreaming() (tea.Model, tea.Cmd) {
	config, err := strategy.Preset(m.preset)
	if err != nil {
		m.err = err
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.updates = make(chan tea.Msg, 64)

	updates := m.updates
	stream := m.stream
	symbols := m.symbols
	interval := m.interval

	start := func() tea.Msg {
		go func() {
			watchSignals(ctx, stream, symbols, interval, config, func(msg tea.Msg) {
				select {
				case updates <- msg:
				case <-ctx.Done():
				}
			})

			close(updates)
		}()

		return StreamStartedMsg{}
	}

	return m, start
}

func (m *Model) stopStreaming() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// waitForUpdate returns a command that blocks for the next stream message.
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	if updates == nil {
		return nil
	}

	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return streamEndedMsg{}
		}

		return msg
	}
}

// watchSignals runs one engine per symbol, routes candles to them and sends
// every candle, signal and error to send. It returns when the stream ends.
func watchSignals(ctx context.Context, stream candleStream, symbols []string, interval datasource.Interval, config strategy.StrategyConfig, send func(tea.Msg)) {
	engines := make(map[string]*engine.Engine, len(symbols))

	var wg sync.WaitGroup

	defer func() {
		for _, eng := range engines {
			eng.Close()
		}

		wg.Wait()
	}()

	for _, symbol := range symbols {
		eng, err := engine.New(
			engine.WithStrategy(config),
			engine.WithAutoIndicators(indicator.DefaultConfig()),
			engine.WithTimeframe(string(interval)),
		)
		if err != nil {
			send(StreamErrorMsg{Err: err})
			return
		}

		engines[symbol] = eng

		wg.Add(2)

		go func() {
			defer wg.Done()

			_ = eng.Run(ctx)
		}()

		go func() {
			defer wg.Done()

			for signal := range eng.Signals() {
				send(SignalMsg{Signal: signal})
			}
		}()
	}

	for candle, err := range stream.Stream(ctx, symbols, interval) {
		if err != nil {
			send(StreamErrorMsg{Err: err})
			continue
		}

		if eng, ok := engines[candle.Symbol]; ok {
			if err := eng.UpdateCandle(candle); err != nil {
				send(StreamErrorMsg{Err: err})
				continue
			}
		}

		send(CandleMsg{Candle: candle})
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateSymbolInput:
		s.WriteString(TitleStyle.Render("Enter Symbols"))
		s.WriteString("\n\n")
		s.WriteString("Enter comma-separated symbols (e.g., BTCUSDT,ETHUSDT):\n\n")
		s.WriteString(m.symbolInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to confirm, Ctrl+C to quit"))

	case StateIntervalSelect:
		s.WriteString(TitleStyle.Render("Select Interval"))
		s.WriteString("\n\n")
		s.WriteString(m.intervalList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, Esc to go back"))

	case StatePresetSelect:
		s.WriteString(TitleStyle.Render("Select Strategy"))
		s.WriteString("\n\n")
		s.WriteString(m.presetList.View())
		s.WriteString("\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n")
		}

		s.WriteString(HelpStyle.Render("Press Enter to start, Esc to go back"))

	case StateSignalDisplay:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Live Signals - %s (%s)", m.preset, m.interval)))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		if len(m.rows) == 0 {
			s.WriteString("Waiting for closed candles...\n")
		} else {
			s.WriteString(m.signalTable.View())
			s.WriteString("\n")
		}

		for _, line := range m.recent {
			s.WriteString(line)
			s.WriteString("\n")
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(fmt.Sprintf("q: quit | Esc: back | Streaming: %s", strings.Join(m.symbols, ", "))))
	}

	return s.String()
}
