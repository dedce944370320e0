package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))

	// LongStyle, ShortStyle and HoldStyle color a signal by type.
	LongStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	ShortStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	HoldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func signalStyle(signalType types.SignalType) lipgloss.Style {
	switch signalType {
	case types.SignalTypeLong:
		return LongStyle
	case types.SignalTypeShort:
		return ShortStyle
	default:
		return HoldStyle
	}
}

// FormatSignal renders one signal on a single line:
// time, type, strength, confidence, price, optional stop and target, reasoning.
func FormatSignal(signal types.StrategySignal) string {
	var b strings.Builder

	b.WriteString(HelpStyle.Render(signal.Timestamp.UTC().Format("2006-01-02 15:04")))
	b.WriteString(" ")
	b.WriteString(signalStyle(signal.Type).Render(fmt.Sprintf("%-5s", signal.Type)))
	fmt.Fprintf(&b, " %-8s %3.0f%% @ %s", signal.Strength, signal.Confidence*100, formatPrice(signal.Price))

	if signal.Metadata.StopLoss != nil {
		fmt.Fprintf(&b, " SL %s", formatPrice(*signal.Metadata.StopLoss))
	}

	if signal.Metadata.TakeProfit != nil {
		fmt.Fprintf(&b, " TP %s", formatPrice(*signal.Metadata.TakeProfit))
	}

	if len(signal.Reasoning) > 0 {
		b.WriteString(" ")
		b.WriteString(HelpStyle.Render(strings.Join(signal.Reasoning, "; ")))
	}

	return b.String()
}

// FormatPerformance renders the performance summary as an aligned block.
func FormatPerformance(performance types.StrategyPerformance) string {
	rows := [][2]string{
		{"Signals", fmt.Sprintf("%d", performance.TotalSignals)},
		{"Long / Short / Hold", fmt.Sprintf("%d / %d / %d", performance.LongSignals, performance.ShortSignals, performance.HoldSignals)},
		{"Published", fmt.Sprintf("%d", performance.PublishedSignals)},
		{"Suppressed", fmt.Sprintf("%d", performance.SuppressedSignals)},
		{"Avg confidence", fmt.Sprintf("%.1f%%", performance.AverageConfidence*100)},
		{"Signals per hour", fmt.Sprintf("%.2f", performance.SignalsPerHour)},
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(performance.StrategyName))
	b.WriteString("\n")

	for _, row := range rows {
		fmt.Fprintf(&b, "  %-20s %s\n", row[0], row[1])
	}

	return b.String()
}

// FormatPriceWithColor formats a price with an arrow showing the move from previous.
func FormatPriceWithColor(current, previous float64) string {
	price := formatPrice(current)

	if previous == 0 {
		return price
	}

	if current > previous {
		return price + " ▲"
	} else if current < previous {
		return price + " ▼"
	}

	return price
}

// formatPrice keeps more decimals for low-priced assets.
func formatPrice(price float64) string {
	switch {
	case price >= 1000:
		return fmt.Sprintf("%.2f", price)
	case price >= 1:
		return fmt.Sprintf("%.4f", price)
	default:
		return fmt.Sprintf("%.8f", price)
	}
}
