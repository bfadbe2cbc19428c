package service

// 经典两步 BKT 更新：先用观测做贝叶斯修正，再叠加学习转移
// p_learn/p_slip/p_guess 是知识组件的固定参数，本操作不重估

type BKTParams struct {
	PMastery float64
	PLearn   float64
	PSlip    float64
	PGuess   float64
}

// BKTUpdate 返回一次作答后的掌握度后验
// 证据步分母为零（slip/guess 退化且掌握度在 0/1 端点）时返回先验不变
func BKTUpdate(prior BKTParams, correct bool) float64 {
	var evidence float64

	if correct {
		numerator := prior.PMastery * (1 - prior.PSlip)
		denominator := numerator + (1-prior.PMastery)*prior.PGuess
		if denominator == 0 {
			return clamp01(prior.PMastery)
		}
		evidence = numerator / denominator
	} else {
		numerator := prior.PMastery * prior.PSlip
		denominator := numerator + (1-prior.PMastery)*(1-prior.PGuess)
		if denominator == 0 {
			return clamp01(prior.PMastery)
		}
		evidence = numerator / denominator
	}

	// 学习转移：未掌握的部分有 p_learn 的概率在这次练习中转为掌握
	posterior := evidence + (1-evidence)*prior.PLearn

	return clamp01(posterior)
}

// ExpectedCorrectness 一次作答答对的边际概率，通过率聚合用
func ExpectedCorrectness(pMastery, pSlip, pGuess float64) float64 {
	return clamp01(pMastery*(1-pSlip) + (1-pMastery)*pGuess)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
