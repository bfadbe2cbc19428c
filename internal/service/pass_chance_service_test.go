package service

import (
	"context"
	"errors"
	"mastery_engine_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoissonBinomialDistribution(t *testing.T) {
	dist := poissonBinomial([]float64{0.8, 0.6})
	require.Len(t, dist, 3)
	assert.InDelta(t, 0.08, dist[0], 1e-9)
	assert.InDelta(t, 0.44, dist[1], 1e-9)
	assert.InDelta(t, 0.48, dist[2], 1e-9)

	var sum float64
	for _, p := range dist {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestPassProbability(t *testing.T) {
	dist := poissonBinomial([]float64{0.8, 0.6})

	// 目标 1.0：必须全对
	assert.InDelta(t, 0.48, passProbability(dist, 1.0), 1e-9)
	// 目标 0.5：答对 1 题或 2 题都达线
	assert.InDelta(t, 0.92, passProbability(dist, 0.5), 1e-9)
	// 目标 0：怎么答都过
	assert.InDelta(t, 1.0, passProbability(dist, 0), 1e-9)
}

func TestComputeCourseNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.passSvc.Compute(context.Background(), 1, "no-such-course")
	assert.True(t, errors.Is(err, util.ErrCourseNotFound))
}

func TestComputeUndeterminedWithoutAttempts(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kc1", 1)
	env.seedKC(t, "c1", "kc2", 2)

	result, err := env.passSvc.Compute(context.Background(), 1, "c1")
	require.NoError(t, err)
	assert.False(t, result.Determined)
	assert.Equal(t, 2, result.KCCount)
	assert.InDelta(t, 0.6, result.TargetGrade, 1e-9)
}

func TestComputeAfterAttempts(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kc1", 1)
	env.seedKC(t, "c1", "kc2", 2)
	env.seedMastery(t, 1, "c1", "kc1", 0.9, 3, 3)

	result, err := env.passSvc.Compute(context.Background(), 1, "c1")
	require.NoError(t, err)
	require.True(t, result.Determined)
	assert.Equal(t, 2, result.KCCount)

	// kc1: 0.9*0.9 + 0.1*0.25 = 0.835；kc2 未作答按默认先验: 0.3*0.9 + 0.7*0.25 = 0.445
	// K=2 目标 0.6 只有全对达线: 0.835 * 0.445 = 0.371575
	assert.InDelta(t, 0.371575, result.Probability, 1e-9)
}

func TestComputeIsolatedPerUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kc1", 1)
	env.seedMastery(t, 1, "c1", "kc1", 0.9, 3, 3)

	result, err := env.passSvc.Compute(context.Background(), 2, "c1")
	require.NoError(t, err)
	assert.False(t, result.Determined)
}

func TestMasteryOverview(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kc1", 1)
	env.seedKC(t, "c1", "kc2", 2)
	env.seedMastery(t, 1, "c1", "kc1", 0.9, 4, 3)

	items, err := env.passSvc.MasteryOverview(context.Background(), 1, "c1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "kc1", items[0].KnowledgeComponentID)
	assert.InDelta(t, 0.9, items[0].PMastery, 1e-9)
	assert.Equal(t, 4, items[0].TotalAttempts)
	assert.True(t, items[0].IsMastered)

	// 未作答的知识组件回落到默认先验
	assert.Equal(t, "kc2", items[1].KnowledgeComponentID)
	assert.InDelta(t, 0.3, items[1].PMastery, 1e-9)
	assert.Equal(t, 0, items[1].TotalAttempts)
	assert.False(t, items[1].IsMastered)
}
