package service

import (
	"sort"

	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/utils/random"
)

// drawPrize picks one prize with probability proportional to its weight.
// Disabled and zero-weight entries never win. Candidates are ordered by wheel
// index then id so a given random value always maps to the same prize.
func drawPrize(src random.Source, candidates []models.WeightedPrize) (*models.Prize, error) {
	eligible := make([]models.WeightedPrize, 0, len(candidates))
	total := 0
	for _, c := range candidates {
		if !c.Enabled || c.WeightBP <= 0 {
			continue
		}
		eligible = append(eligible, c)
		total += c.WeightBP
	}
	if total == 0 {
		return nil, ErrNoPrizeAvailable
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].WheelIndex != eligible[j].WheelIndex {
			return eligible[i].WheelIndex < eligible[j].WheelIndex
		}
		return eligible[i].ID < eligible[j].ID
	})

	r := src.Intn(total)
	acc := 0
	for i := range eligible {
		acc += eligible[i].WeightBP
		if r < acc {
			p := eligible[i].Prize
			return &p, nil
		}
	}

	// unreachable: r < total == acc after the loop
	p := eligible[len(eligible)-1].Prize
	return &p, nil
}
