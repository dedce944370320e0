package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Contributor is one reading counted by Summarize.
type Contributor struct {
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

// Summary is the combined verdict over the latest reading of every indicator in a suite.
type Summary struct {
	Bullish          int                          `json:"bullish"`
	Bearish          int                          `json:"bearish"`
	Neutral          int                          `json:"neutral"`
	StrongestBullish optional.Option[Contributor] `json:"strongest_bullish"`
	StrongestBearish optional.Option[Contributor] `json:"strongest_bearish"`
	Signal           types.Direction              `json:"signal"`
	// Confidence is the average strength of the directional readings
	Confidence float64 `json:"confidence"`
}

// Summarize counts the latest readings of a suite. Stochastic %K and %D are
// counted as two readings. The verdict is buy when more than 60% of the
// directional readings are bullish, sell when fewer than 40% are, else neutral.
func Summarize(suite types.Suite) Summary {
	summary := Summary{
		Bullish:          0,
		Bearish:          0,
		Neutral:          0,
		StrongestBullish: optional.None[Contributor](),
		StrongestBearish: optional.None[Contributor](),
		Signal:           types.DirectionNeutral,
		Confidence:       0,
	}

	totalStrength := 0.0

	count := func(name string, signal types.Direction, strength float64) {
		switch signal {
		case types.DirectionBuy:
			summary.Bullish++
			totalStrength += strength

			if summary.StrongestBullish.IsNone() || strength > summary.StrongestBullish.Unwrap().Strength {
				summary.StrongestBullish = optional.Some(Contributor{Name: name, Strength: strength})
			}
		case types.DirectionSell:
			summary.Bearish++
			totalStrength += strength

			if summary.StrongestBearish.IsNone() || strength > summary.StrongestBearish.Unwrap().Strength {
				summary.StrongestBearish = optional.Some(Contributor{Name: name, Strength: strength})
			}
		default:
			summary.Neutral++
		}
	}

	for _, name := range suite.Names() {
		latest, ok := suite.Latest(name)
		if !ok {
			continue
		}

		if name != types.IndicatorTypeStochastic {
			count(string(name), latest.Signal, latest.Strength)

			continue
		}

		count("stochastic_k", latest.Signal, latest.Strength)

		if d, ok := latest.Value.Get("d"); ok {
			signal, strength := ScoreStochastic(d)
			count("stochastic_d", signal, clamp01(strength))
		}
	}

	directional := summary.Bullish + summary.Bearish
	if directional == 0 {
		return summary
	}

	bullishFraction := float64(summary.Bullish) / float64(directional)

	switch {
	case bullishFraction > 0.6:
		summary.Signal = types.DirectionBuy
	case bullishFraction < 0.4:
		summary.Signal = types.DirectionSell
	}

	summary.Confidence = totalStrength / float64(directional)

	return summary
}
