package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/stretchr/testify/suite"
)

type LimiterTestSuite struct {
	suite.Suite
	now time.Time
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterTestSuite))
}

func (suite *LimiterTestSuite) SetupTest() {
	suite.now = testStart
}

func (suite *LimiterTestSuite) clock() time.Time {
	return suite.now
}

func (suite *LimiterTestSuite) TestHourlyLimit() {
	limiter := NewRateLimiter(3, suite.clock)

	published := 0

	for range 10 {
		if ok, _ := limiter.Admit(types.SignalTypeLong); ok {
			published++
		}

		suite.now = suite.now.Add(time.Minute)
	}

	suite.Equal(3, published)
	suite.Equal(3, limiter.Count())

	ok, reason := limiter.Admit(types.SignalTypeLong)
	suite.False(ok)
	suite.Equal(SuppressedHourlyLimit, reason)

	// the window restarts an hour after it opened
	suite.now = testStart.Add(time.Hour)
	ok, reason = limiter.Admit(types.SignalTypeShort)
	suite.True(ok)
	suite.Empty(reason)
	suite.Equal(1, limiter.Count())
}

func (suite *LimiterTestSuite) TestHoldCooldown() {
	limiter := NewRateLimiter(0, suite.clock)

	ok, _ := limiter.Admit(types.SignalTypeHold)
	suite.True(ok, "first HOLD has nothing to cool down from")

	suite.now = suite.now.Add(30 * time.Second)
	ok, reason := limiter.Admit(types.SignalTypeHold)
	suite.False(ok)
	suite.Equal(SuppressedHoldCooldown, reason)

	ok, _ = limiter.Admit(types.SignalTypeLong)
	suite.True(ok, "directional signals ignore the cooldown")

	suite.now = suite.now.Add(HoldCooldown)
	ok, _ = limiter.Admit(types.SignalTypeHold)
	suite.True(ok)
}

func (suite *LimiterTestSuite) TestUnlimited() {
	limiter := NewRateLimiter(0, suite.clock)

	for range 100 {
		ok, _ := limiter.Admit(types.SignalTypeLong)
		suite.Require().True(ok)
	}
}

func (suite *LimiterTestSuite) TestReset() {
	limiter := NewRateLimiter(1, suite.clock)

	ok, _ := limiter.Admit(types.SignalTypeLong)
	suite.True(ok)

	ok, _ = limiter.Admit(types.SignalTypeLong)
	suite.False(ok)

	limiter.Reset(2)
	suite.Zero(limiter.Count())

	ok, _ = limiter.Admit(types.SignalTypeHold)
	suite.True(ok)
}
