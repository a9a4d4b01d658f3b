package engine

import (
	"math"
	"time"

	"github.com/engramlabs/engram/internal/store"
)

// score combines recency, frequency, and semantic type into a single
// tiering score:
//
//	recencyWeight   * exp(-ageDays / recencyDays)
//	frequencyWeight * log10(accessCount + 1)
//	typeWeight      * typeBonus(type)
//
// Recency decays exponentially from the last access; frequency has
// diminishing returns; pinned types carry a flat bonus that keeps them
// retrievable regardless of access pattern.
func (e *Engine) score(now time.Time, typ string, accessCount int, accessedAt int64) float64 {
	t := e.cfg.Tiering

	ageDays := now.Sub(time.UnixMilli(accessedAt)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	return t.RecencyWeight*math.Exp(-ageDays/t.RecencyDays) +
		t.FrequencyWeight*math.Log10(float64(accessCount)+1) +
		t.TypeWeight*e.typeBonus(typ)
}

func (e *Engine) typeBonus(typ string) float64 {
	for _, pinned := range e.cfg.Tiering.PinnedTypes {
		if typ == pinned {
			return e.cfg.Tiering.PinnedBonus
		}
	}
	return e.cfg.Tiering.DefaultBonus
}

// tierFor maps a score onto a storage tier using the configured
// thresholds.
func (e *Engine) tierFor(score float64) string {
	t := e.cfg.Tiering
	switch {
	case score >= t.HotThreshold:
		return store.TierHot
	case score >= t.WarmThreshold:
		return store.TierWarm
	default:
		return store.TierCold
	}
}

// recencyScore is the recency term alone, used to annotate hot-set
// results for session bootstrap.
func (e *Engine) recencyScore(now time.Time, accessedAt int64) float64 {
	ageDays := now.Sub(time.UnixMilli(accessedAt)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays / e.cfg.Tiering.RecencyDays)
}
