// Package harmonizer согласует сигналы разных таймфреймов одного актива.
package harmonizer

import (
	"math"

	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

// LevelCalculator пересчитывает уровни выхода сигнала после смены направления
type LevelCalculator interface {
	Apply(sig *models.Signal)
}

// Override запись о смене направления младшего таймфрейма
type Override struct {
	Higher models.Timeframe
	Lower  models.Timeframe
	From   models.Direction
	To     models.Direction
}

// Harmonizer переносит влияние уверенных старших таймфреймов на младшие
type Harmonizer struct {
	config config.HarmonizerConfig
	levels LevelCalculator
}

// New создает гармонизатор
func New(cfg config.HarmonizerConfig, levels LevelCalculator) *Harmonizer {
	return &Harmonizer{
		config: cfg,
		levels: levels,
	}
}

// Harmonize возвращает новый набор сигналов, исходный набор не изменяется.
//
// Таймфреймы обходятся от старшего к младшему. Старший таймфрейм с уверенностью выше
// ConfidenceThreshold (с учетом уже примененного к нему влияния) сдвигает уверенность
// каждого младшего на долю f = min(MaxInfluence, distance*Step), где distance считается
// по позициям полной иерархии. Направление младшего меняется на направление старшего,
// если старший не NEUTRAL и f*confidence/100 >= DirectionThreshold.
func (h *Harmonizer) Harmonize(set *models.TimeframeSet) (*models.TimeframeSet, []Override) {
	if set == nil {
		return nil, nil
	}

	result := models.NewTimeframeSet(set.Symbol, set.Price)
	for tf, sig := range set.Signals {
		if sig == nil {
			continue
		}
		// таймфрейм сигнала определяется ключом набора
		cp := *sig
		cp.Timeframe = tf
		result.Signals[tf] = &cp
	}

	ordered := result.Ordered()
	var overrides []Override

	for i := len(ordered) - 1; i >= 0; i-- {
		higher := ordered[i]
		if higher.Confidence <= h.config.ConfidenceThreshold {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			lower := ordered[j]
			f := h.influence(higher.Timeframe, lower.Timeframe)
			if f <= 0 {
				continue
			}

			lower.Confidence = math.Round((1-f)*lower.Confidence + f*higher.Confidence)

			if higher.Direction != models.Neutral &&
				higher.Direction != lower.Direction &&
				f*higher.Confidence/100 >= h.config.DirectionThreshold {
				overrides = append(overrides, Override{
					Higher: higher.Timeframe,
					Lower:  lower.Timeframe,
					From:   lower.Direction,
					To:     higher.Direction,
				})
				lower.Direction = higher.Direction
				if h.levels != nil {
					h.levels.Apply(lower)
				}
			}
		}
	}

	return result, overrides
}

// influence доля влияния старшего таймфрейма на младший
func (h *Harmonizer) influence(higher, lower models.Timeframe) float64 {
	distance := higher.Rank() - lower.Rank()
	if distance <= 0 {
		return 0
	}
	return math.Min(h.config.MaxInfluence, float64(distance)*h.config.Step)
}
