package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/stretchr/testify/suite"
)

type SummaryTestSuite struct {
	suite.Suite
}

func TestSummarySuite(t *testing.T) {
	suite.Run(t, new(SummaryTestSuite))
}

func latestOnly(signal types.Direction, strength float64) []types.IndicatorResult {
	return []types.IndicatorResult{
		{Index: 0, Value: types.Scalar(0), Signal: types.DirectionNeutral, Strength: 0},
		{Index: 1, Value: types.Scalar(1), Signal: signal, Strength: strength},
	}
}

func (suite *SummaryTestSuite) TestBullishVerdict() {
	summary := Summarize(types.Suite{
		types.IndicatorTypeRSI:  latestOnly(types.DirectionBuy, 0.9),
		types.IndicatorTypeMACD: latestOnly(types.DirectionBuy, 0.7),
		types.IndicatorTypeCCI:  latestOnly(types.DirectionBuy, 0.5),
		types.IndicatorTypeMFI:  latestOnly(types.DirectionSell, 0.6),
		types.IndicatorTypeATR:  latestOnly(types.DirectionNeutral, 0.3),
	})

	suite.Equal(3, summary.Bullish)
	suite.Equal(1, summary.Bearish)
	suite.Equal(1, summary.Neutral)
	suite.Equal(types.DirectionBuy, summary.Signal)
	suite.InDelta(0.675, summary.Confidence, 1e-9)
	suite.Equal("rsi", summary.StrongestBullish.Unwrap().Name)
	suite.Equal("mfi", summary.StrongestBearish.Unwrap().Name)
}

func (suite *SummaryTestSuite) TestBearishVerdict() {
	summary := Summarize(types.Suite{
		types.IndicatorTypeRSI:  latestOnly(types.DirectionSell, 0.9),
		types.IndicatorTypeMACD: latestOnly(types.DirectionSell, 0.5),
		types.IndicatorTypeCCI:  latestOnly(types.DirectionBuy, 0.4),
	})

	suite.Equal(types.DirectionSell, summary.Signal)
	suite.InDelta(0.6, summary.Confidence, 1e-9)
}

func (suite *SummaryTestSuite) TestBalancedIsNeutral() {
	summary := Summarize(types.Suite{
		types.IndicatorTypeRSI: latestOnly(types.DirectionBuy, 0.9),
		types.IndicatorTypeCCI: latestOnly(types.DirectionSell, 0.5),
	})

	suite.Equal(types.DirectionNeutral, summary.Signal)
	suite.InDelta(0.7, summary.Confidence, 1e-9)
}

func (suite *SummaryTestSuite) TestEmptySuite() {
	summary := Summarize(types.Suite{})

	suite.Equal(types.DirectionNeutral, summary.Signal)
	suite.Zero(summary.Confidence)
	suite.True(summary.StrongestBullish.IsNone())
	suite.True(summary.StrongestBearish.IsNone())
}

func (suite *SummaryTestSuite) TestStochasticCountsKAndD() {
	summary := Summarize(types.Suite{
		types.IndicatorTypeStochastic: {
			{
				Index:    15,
				Value:    types.Named(map[string]float64{"k": 10, "d": 15}),
				Signal:   types.DirectionBuy,
				Strength: 0.75,
			},
		},
	})

	suite.Equal(2, summary.Bullish)
	suite.Equal(types.DirectionBuy, summary.Signal)
	suite.Equal("stochastic_k", summary.StrongestBullish.Unwrap().Name)
	// %D at 15 scores 0.5 + 5/40
	suite.InDelta((0.75+0.625)/2, summary.Confidence, 1e-9)
}
