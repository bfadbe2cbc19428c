package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultParams() BKTParams {
	return BKTParams{PMastery: 0.3, PLearn: 0.1, PSlip: 0.1, PGuess: 0.25}
}

func TestBKTUpdateCorrect(t *testing.T) {
	// 证据步 0.27/0.445，再叠加学习转移
	got := BKTUpdate(defaultParams(), true)
	assert.InDelta(t, 0.6460674157, got, 1e-9)
}

func TestBKTUpdateIncorrect(t *testing.T) {
	// 证据步 0.03/0.555
	got := BKTUpdate(defaultParams(), false)
	assert.InDelta(t, 0.1486486486, got, 1e-9)
}

func TestBKTUpdateIncorrectCanStillRaise(t *testing.T) {
	// p_learn 足够大时答错也可能抬升掌握度，这是模型本身的性质
	p := BKTParams{PMastery: 0.1, PLearn: 0.5, PSlip: 0.1, PGuess: 0.25}
	got := BKTUpdate(p, false)
	assert.Greater(t, got, 0.1)
}

func TestBKTUpdateBounds(t *testing.T) {
	values := []float64{0, 0.25, 0.5, 0.75, 1}
	for _, m := range values {
		for _, l := range values {
			for _, sl := range values {
				for _, g := range values {
					p := BKTParams{PMastery: m, PLearn: l, PSlip: sl, PGuess: g}
					for _, correct := range []bool{true, false} {
						got := BKTUpdate(p, correct)
						assert.GreaterOrEqual(t, got, 0.0, "params=%+v correct=%v", p, correct)
						assert.LessOrEqual(t, got, 1.0, "params=%+v correct=%v", p, correct)
					}
				}
			}
		}
	}
}

func TestBKTUpdateDegenerateDenominator(t *testing.T) {
	// 答对分支：p_mastery=0 且 p_guess=0 时分母为零，返回先验不变
	p := BKTParams{PMastery: 0, PLearn: 0.1, PSlip: 0.1, PGuess: 0}
	assert.Equal(t, 0.0, BKTUpdate(p, true))

	// 答错分支：p_mastery=1 且 p_slip=0 时分母为零
	p = BKTParams{PMastery: 1, PLearn: 0.1, PSlip: 0, PGuess: 0.25}
	assert.Equal(t, 1.0, BKTUpdate(p, false))
}

func TestBKTUpdateConvergesWithCorrectStreak(t *testing.T) {
	p := defaultParams()
	for i := 0; i < 10; i++ {
		p.PMastery = BKTUpdate(p, true)
	}
	assert.GreaterOrEqual(t, p.PMastery, 0.85)
}

func TestExpectedCorrectness(t *testing.T) {
	assert.InDelta(t, 0.445, ExpectedCorrectness(0.3, 0.1, 0.25), 1e-9)
	assert.InDelta(t, 0.835, ExpectedCorrectness(0.9, 0.1, 0.25), 1e-9)
	// 已掌握且不失误时必答对
	assert.InDelta(t, 1.0, ExpectedCorrectness(1, 0, 0), 1e-9)
}
