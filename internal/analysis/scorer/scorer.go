// Package scorer превращает снимок индикаторов в направление и уверенность.
package scorer

import (
	"math"

	"github.com/skalibog/mtfa/internal/analysis/levels"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

// Factors слагаемые уверенности
type Factors struct {
	Confluence float64
	Trend      float64
	Momentum   float64
	Volume     float64
	Structure  float64
}

// Sum сумма всех слагаемых
func (f Factors) Sum() float64 {
	return f.Confluence + f.Trend + f.Momentum + f.Volume + f.Structure
}

// Result итог оценки одного снимка
type Result struct {
	Direction  models.Direction
	Confidence float64
	Bullish    float64
	Bearish    float64
	Strength   float64
	Factors    Factors
}

// Scorer взвешенно голосует индикаторами
type Scorer struct {
	config config.ScoringConfig
}

// New создает оценщик
func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		config: cfg,
	}
}

// Score оценивает снимок. При Bars < MinBars возвращает NEUTRAL с InsufficientConfidence.
func (s *Scorer) Score(snap models.IndicatorSnapshot) Result {
	if snap.Bars < s.config.MinBars {
		return Result{
			Direction:  models.Neutral,
			Confidence: s.config.InsufficientConfidence,
		}
	}

	bull, bear := s.votes(snap)

	var strength float64
	if total := s.config.Weights.TotalPossible(); total > 0 {
		strength = math.Abs(bull-bear) / total
	}

	direction := models.Neutral
	if strength > s.config.ConfluenceThreshold {
		switch {
		case bull > bear:
			direction = models.Long
		case bear > bull:
			direction = models.Short
		}
	}

	factors := s.confidenceFactors(snap, direction, strength)
	confidence := math.Max(s.config.MinConfidence, math.Min(s.config.MaxConfidence, factors.Sum()))

	return Result{
		Direction:  direction,
		Confidence: math.Round(confidence),
		Bullish:    bull,
		Bearish:    bear,
		Strength:   strength,
		Factors:    factors,
	}
}

// votes суммирует веса бычьих и медвежьих голосов
func (s *Scorer) votes(snap models.IndicatorSnapshot) (bull, bear float64) {
	cfg := s.config
	w := cfg.Weights

	cast := func(d models.Direction, weight float64) {
		switch d {
		case models.Long:
			bull += weight
		case models.Short:
			bear += weight
		}
	}

	// RSI: зоны перепроданности и перекупленности, иначе сторона от 50
	switch {
	case snap.RSI < cfg.RSIOversold:
		cast(models.Long, w.RSI)
	case snap.RSI > cfg.RSIOverbought:
		cast(models.Short, w.RSI)
	default:
		cast(side(snap.RSI, 50), w.RSI)
	}

	cast(side(snap.MACD.Histogram, 0), w.MACD)
	cast(snap.EMA.Order(), w.EMA)

	// Bollinger: края полос как разворот, внутри положение относительно средней
	switch {
	case snap.Bollinger.Position <= cfg.BBLowerZone:
		cast(models.Long, w.Bollinger)
	case snap.Bollinger.Position >= cfg.BBUpperZone:
		cast(models.Short, w.Bollinger)
	default:
		cast(side(snap.Price, snap.Bollinger.Middle), w.Bollinger)
	}

	switch st := snap.Stochastic; {
	case st.K > cfg.StochOverbought && st.D > cfg.StochOverbought:
		cast(models.Short, w.Stochastic)
	case st.K < cfg.StochOversold && st.D < cfg.StochOversold:
		cast(models.Long, w.Stochastic)
	}

	// Продолжение тренда, пока волатильность не указывает на истощение
	if snap.Price > 0 && snap.ATR/snap.Price*100 <= cfg.VolatilityExhaustion {
		weight := w.VolatilityRanging
		if snap.ADX.ADX > cfg.ADXTrendThreshold {
			weight = w.VolatilityTrending
		}
		cast(side(snap.SMA20, snap.SMA50), weight)
	}

	cast(s.levelVote(snap), w.Levels)

	switch bias := levels.Bias(snap.Patterns); {
	case bias > 0:
		cast(models.Long, w.Patterns)
	case bias < 0:
		cast(models.Short, w.Patterns)
	}

	return bull, bear
}

// levelVote: цена чуть выше поддержки бычья, чуть ниже сопротивления медвежья
func (s *Scorer) levelVote(snap models.IndicatorSnapshot) models.Direction {
	if snap.Price <= 0 {
		return models.Neutral
	}

	var nearSupport, nearResistance bool
	for _, lvl := range snap.Levels.Supports {
		if snap.Price >= lvl && (snap.Price-lvl)/snap.Price <= s.config.LevelProximity {
			nearSupport = true
		}
	}
	for _, lvl := range snap.Levels.Resistances {
		if snap.Price <= lvl && (lvl-snap.Price)/snap.Price <= s.config.LevelProximity {
			nearResistance = true
		}
	}

	switch {
	case nearSupport && !nearResistance:
		return models.Long
	case nearResistance && !nearSupport:
		return models.Short
	default:
		return models.Neutral
	}
}

func (s *Scorer) confidenceFactors(snap models.IndicatorSnapshot, direction models.Direction, strength float64) Factors {
	cf := s.config.Confidence

	f := Factors{
		Confluence: strength * cf.ConfluenceScale,
		Momentum:   cf.MomentumWeak,
		Volume:     cf.VolumeLow,
		Structure:  cf.StructureRanging,
	}

	order := snap.EMA.Order()
	switch {
	case direction == models.Neutral || order == models.Neutral:
		f.Trend = cf.TrendNeutral
	case order == direction:
		f.Trend = cf.TrendAgree
	default:
		f.Trend = cf.TrendDisagree
	}

	switch m := math.Abs(snap.Momentum); {
	case m > cf.MomentumStrongThreshold:
		f.Momentum = cf.MomentumStrong
	case m > cf.MomentumModerateThreshold:
		f.Momentum = cf.MomentumModerate
	}

	switch {
	case snap.VolumeRatio >= cf.VolumeHighRatio:
		f.Volume = cf.VolumeHigh
	case snap.VolumeRatio >= cf.VolumeNormalRatio:
		f.Volume = cf.VolumeNormal
	}

	if snap.ADX.ADX > s.config.ADXTrendThreshold {
		f.Structure = cf.StructureTrending
	}

	return f
}

// side сравнивает значение с ориентиром
func side(v, ref float64) models.Direction {
	switch {
	case v > ref:
		return models.Long
	case v < ref:
		return models.Short
	default:
		return models.Neutral
	}
}
