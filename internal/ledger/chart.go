package ledger

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/Qhawe-ma/predd/internal/domain"
)

const (
	chartFloor = 0.01
	chartCeil  = 0.99
)

// generateChart synthesises an hourly price history for a market whose
// current YES price is start. It walks backwards-plausible points ending at
// start: each step perturbs the price by up to ±volatility and clamps it to
// [0.01, 0.99] so neither side ever displays as free or certain. Values are
// rounded to two decimals to match the posted-price precision.
func generateChart(start, volatility float64, points int, now time.Time) []domain.PricePoint {
	if points <= 0 {
		return nil
	}

	out := make([]domain.PricePoint, 0, points)
	v := start
	for i := points - 1; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * time.Hour)
		out = append(out, domain.PricePoint{Timestamp: ts, Value: roundPrice(v)})
		v = clampPrice(v + (rand.Float64()-0.5)*2*volatility)
	}

	// The walk drifts, so pin the final point back to the live price.
	out[len(out)-1].Value = roundPrice(start)
	return out
}

func clampPrice(v float64) float64 {
	return math.Min(chartCeil, math.Max(chartFloor, v))
}

func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
