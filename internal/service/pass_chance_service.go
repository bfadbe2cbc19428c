package service

import (
	"context"
	"mastery_engine_backend/internal/config"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/repository"
	"time"
)

// PassChanceService 把课程内各知识组件的掌握快照聚合成通过率估计
type PassChanceService struct {
	courseRepo  *repository.CourseRepository
	masteryRepo *repository.MasteryRepository
	cfg         *config.Config
}

func NewPassChanceService(courseRepo *repository.CourseRepository, masteryRepo *repository.MasteryRepository, cfg *config.Config) *PassChanceService {
	return &PassChanceService{
		courseRepo:  courseRepo,
		masteryRepo: masteryRepo,
		cfg:         cfg,
	}
}

type PassChanceResult struct {
	Determined  bool    `json:"determined"`
	Probability float64 `json:"probability"`
	TargetGrade float64 `json:"targetGrade"`
	KCCount     int     `json:"kcCount"` // 参与估计的知识组件数
}

type MasteryOverviewItem struct {
	KnowledgeComponentID string  `json:"knowledgeComponentId"`
	Title                string  `json:"title"`
	Topic                string  `json:"topic"`
	PMastery             float64 `json:"pMastery"`
	TotalAttempts        int     `json:"totalAttempts"`
	TotalCorrect         int     `json:"totalCorrect"`
	IsMastered           bool    `json:"isMastered"`
}

// Compute 课程通过率估计
// 把一次假想考试建模为每个知识组件一道题的独立非同分布伯努利试验，
// 用动态规划构造答对总数的泊松二项分布，再对达线的取值求和
// 课程内没有任何作答记录时返回"无法判定"，这是合法结果不是错误
func (s *PassChanceService) Compute(ctx context.Context, userID uint, courseID string) (*PassChanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	kcs, err := s.courseRepo.KnowledgeComponents(ctx, courseID, "")
	if err != nil {
		return nil, err
	}

	target := clamp01(course.TargetGrade)

	if len(kcs) == 0 {
		return &PassChanceResult{Determined: false, TargetGrade: target}, nil
	}

	records, err := s.masteryRepo.ListByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	recordByKC := make(map[string]model.MasteryRecord, len(records))
	attempted := false
	for _, r := range records {
		recordByKC[r.KnowledgeComponentID] = r
		if r.TotalAttempts > 0 {
			attempted = true
		}
	}

	if !attempted {
		return &PassChanceResult{Determined: false, TargetGrade: target, KCCount: len(kcs)}, nil
	}

	pEffs := make([]float64, 0, len(kcs))
	for _, kc := range kcs {
		if r, ok := recordByKC[kc.ID]; ok {
			pEffs = append(pEffs, ExpectedCorrectness(r.PMastery, r.PSlip, r.PGuess))
		} else {
			// 没作答过的知识组件按默认先验参与估计
			pEffs = append(pEffs, ExpectedCorrectness(s.cfg.Engine.DefaultPMastery, kc.PSlip, kc.PGuess))
		}
	}

	dist := poissonBinomial(pEffs)
	probability := passProbability(dist, target)

	return &PassChanceResult{
		Determined:  true,
		Probability: probability,
		TargetGrade: target,
		KCCount:     len(kcs),
	}, nil
}

// MasteryOverview 课程内各知识组件的掌握快照（只读，不触发任何更新）
func (s *PassChanceService) MasteryOverview(ctx context.Context, userID uint, courseID string) ([]MasteryOverviewItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		return nil, err
	}

	kcs, err := s.courseRepo.KnowledgeComponents(ctx, courseID, "")
	if err != nil {
		return nil, err
	}

	records, err := s.masteryRepo.ListByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	recordByKC := make(map[string]model.MasteryRecord, len(records))
	for _, r := range records {
		recordByKC[r.KnowledgeComponentID] = r
	}

	items := make([]MasteryOverviewItem, 0, len(kcs))
	for _, kc := range kcs {
		item := MasteryOverviewItem{
			KnowledgeComponentID: kc.ID,
			Title:                kc.Title,
			Topic:                kc.Topic,
			PMastery:             s.cfg.Engine.DefaultPMastery,
		}
		if r, ok := recordByKC[kc.ID]; ok {
			item.PMastery = r.PMastery
			item.TotalAttempts = r.TotalAttempts
			item.TotalCorrect = r.TotalCorrect
		}
		item.IsMastered = item.PMastery >= s.cfg.Engine.MasteryThreshold
		items = append(items, item)
	}

	return items, nil
}

// poissonBinomial 答对总数的分布：dist[c] = 恰好答对 c 题的概率
// 滚动一维 DP，倒序更新，O(K²)
func poissonBinomial(pEffs []float64) []float64 {
	dist := make([]float64, len(pEffs)+1)
	dist[0] = 1

	for i, p := range pEffs {
		for c := i + 1; c >= 1; c-- {
			dist[c] = dist[c]*(1-p) + dist[c-1]*p
		}
		dist[0] = dist[0] * (1 - p)
	}

	return dist
}

// passProbability 答对比例达到目标线的概率
func passProbability(dist []float64, targetGrade float64) float64 {
	k := len(dist) - 1
	if k <= 0 {
		return 0
	}

	var sum float64
	for c := 0; c <= k; c++ {
		if float64(c)/float64(k) >= targetGrade {
			sum += dist[c]
		}
	}
	return clamp01(sum)
}
