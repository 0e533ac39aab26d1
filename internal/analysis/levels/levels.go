// Package levels находит уровни поддержки и сопротивления и простые свечные паттерны.
package levels

import (
	"math"
	"sort"

	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

// Detector ищет уровни и паттерны по серии свечей
type Detector struct {
	config config.LevelsConfig
}

// NewDetector создает детектор уровней
func NewDetector(cfg config.LevelsConfig) *Detector {
	return &Detector{
		config: cfg,
	}
}

// Analyze возвращает уровни и паттерны для серии
func (d *Detector) Analyze(candles []*models.Candle) (models.Levels, []models.Pattern) {
	return d.SupportResistance(candles), d.DetectPatterns(candles)
}

// SwingPoints возвращает индексы локальных максимумов и минимумов.
// Свеча i является максимумом, если ее high строго больше high предыдущих lookback свечей
// и не меньше high следующих lookback свечей. Для минимумов правило зеркальное.
func SwingPoints(candles []*models.Candle, lookback int) (highs, lows []int) {
	if lookback <= 0 || len(candles) < 2*lookback+1 {
		return nil, nil
	}

	for i := lookback; i < len(candles)-lookback; i++ {
		isHigh, isLow := true, true
		for j := i - lookback; j <= i+lookback && (isHigh || isLow); j++ {
			if j == i {
				continue
			}
			if j < i {
				isHigh = isHigh && candles[i].High > candles[j].High
				isLow = isLow && candles[i].Low < candles[j].Low
			} else {
				isHigh = isHigh && candles[i].High >= candles[j].High
				isLow = isLow && candles[i].Low <= candles[j].Low
			}
		}
		if isHigh {
			highs = append(highs, i)
		}
		if isLow {
			lows = append(lows, i)
		}
	}
	return highs, lows
}

// SupportResistance берет последние MaxLevels локальных минимумов как поддержки
// и максимумов как сопротивления. Близкие уровни объединяются, остается более свежий.
func (d *Detector) SupportResistance(candles []*models.Candle) models.Levels {
	highs, lows := SwingPoints(candles, d.config.SwingLookback)

	supports := make([]float64, len(lows))
	for i, idx := range lows {
		supports[i] = candles[idx].Low
	}
	resistances := make([]float64, len(highs))
	for i, idx := range highs {
		resistances[i] = candles[idx].High
	}

	return models.Levels{
		Supports:    d.recentDistinct(supports),
		Resistances: d.recentDistinct(resistances),
	}
}

// recentDistinct проходит от свежих значений к старым и возвращает до MaxLevels уровней по возрастанию
func (d *Detector) recentDistinct(values []float64) []float64 {
	result := make([]float64, 0, d.config.MaxLevels)
	for i := len(values) - 1; i >= 0 && len(result) < d.config.MaxLevels; i-- {
		if !d.near(result, values[i]) {
			result = append(result, values[i])
		}
	}
	sort.Float64s(result)
	return result
}

func (d *Detector) near(levels []float64, v float64) bool {
	for _, l := range levels {
		if relativeDiff(l, v) <= d.config.MergeTolerance {
			return true
		}
	}
	return false
}

func relativeDiff(a, b float64) float64 {
	base := math.Max(math.Abs(a), math.Abs(b))
	if base == 0 {
		return 0
	}
	return math.Abs(a-b) / base
}
