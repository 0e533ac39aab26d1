package technical

import (
	"github.com/skalibog/mtfa/internal/analysis/levels"
	"github.com/skalibog/mtfa/internal/analysis/volumedelta"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/internal/indicators"
	"github.com/skalibog/mtfa/pkg/models"
)

// Analyzer строит IndicatorSnapshot по серии свечей одного таймфрейма
type Analyzer struct {
	config config.TechnicalConfig
	levels *levels.Detector
	volume *volumedelta.Analyzer
}

// NewAnalyzer создает новый анализатор технических индикаторов
func NewAnalyzer(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		config: cfg.Technical,
		levels: levels.NewDetector(cfg.Levels),
		volume: volumedelta.NewAnalyzer(cfg.VolumeDelta),
	}
}

// Analyze рассчитывает все индикаторы по свечам в порядке возрастания времени.
// price текущая цена, если она не задана, используется последнее закрытие.
func (a *Analyzer) Analyze(candles []*models.Candle, price float64) models.IndicatorSnapshot {
	if price <= 0 && len(candles) > 0 {
		price = candles[len(candles)-1].Close
	}

	closes := models.Closes(candles)

	bb := indicators.Bollinger(candles, a.config.BBPeriod, a.config.BBDeviation)

	sma20 := indicators.SMA(closes, a.config.SMAShort)
	sma50 := indicators.SMA(closes, a.config.SMALong)

	delta, ratio := a.volume.Analyze(candles)
	lvls, patterns := a.levels.Analyze(candles)

	snap := models.IndicatorSnapshot{
		Version: models.SnapshotVersion,
		Bars:    len(candles),
		RSI:     indicators.RSI(candles, a.config.RSIPeriod),
		MACD:    indicators.MACDWithPeriods(candles, a.config.MACDFast, a.config.MACDSlow, a.config.MACDSignal),
		EMA: models.EMAStack{
			Fast:  indicators.LastEMA(closes, a.config.EMAFast),
			Slow:  indicators.LastEMA(closes, a.config.EMASlow),
			Trend: indicators.LastEMA(closes, a.config.EMATrend),
		},
		Bollinger:   bb,
		Stochastic:  indicators.Stochastic(candles, a.config.StochK, a.config.StochD),
		ADX:         indicators.ADX(candles, a.config.ADXPeriod),
		ATR:         indicators.ATR(candles, a.config.ATRPeriod),
		SMA20:       sma20,
		SMA50:       sma50,
		Momentum:    momentum(sma20, sma50),
		VolumeRatio: ratio,
		VolumeDelta: delta,
		Levels:      lvls,
		Patterns:    patterns,
	}
	return a.Reprice(snap, price)
}

// Reprice переносит снимок на другую текущую цену.
// От цены зависят только Price и положение внутри полос Боллинджера,
// поэтому Reprice(Analyze(c, p1), p2) совпадает с Analyze(c, p2).
func (a *Analyzer) Reprice(snap models.IndicatorSnapshot, price float64) models.IndicatorSnapshot {
	snap.Price = price
	if snap.Bars >= a.config.BBPeriod {
		snap.Bollinger.Position = indicators.BandPosition(snap.Bollinger.Upper, snap.Bollinger.Lower, price)
	}
	return snap
}

// momentum расхождение коротких и длинных средних в процентах
func momentum(short, long float64) float64 {
	if long == 0 {
		return 0
	}
	return (short - long) / long * 100
}
