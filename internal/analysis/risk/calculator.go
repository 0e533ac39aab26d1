// Package risk рассчитывает стоп-лосс, тейк-профит и соотношение риск/прибыль.
package risk

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

// epsilon заменяет нулевую дистанцию риска при нулевой цене
const epsilon = 1e-9

// Levels уровни выхода для одной позиции
type Levels struct {
	StopLoss   float64
	TakeProfit float64
	RiskReward float64
}

// Calculator рассчитывает уровни по таблице процентов таймфрейма
type Calculator struct {
	config config.RiskConfig
}

// NewCalculator создает калькулятор уровней
func NewCalculator(cfg config.RiskConfig) *Calculator {
	if cfg.Table == nil {
		cfg.Table = config.DefaultRiskTable()
	}
	return &Calculator{
		config: cfg,
	}
}

// Levels рассчитывает уровни для направления и цены входа.
// Для NEUTRAL строится симметричный коридор в долю NeutralBandFactor от стоп-лосса.
// При ATRMultiplier > 0 стоп расширяется до ATR*multiplier, тейк сохраняет пропорцию таблицы.
func (c *Calculator) Levels(direction models.Direction, entry, atr float64, tf models.Timeframe) Levels {
	row := c.row(tf)
	slPct := row.StopLossPercent / 100
	tpPct := row.TakeProfitPercent / 100

	stopDist := entry * slPct
	takeDist := entry * tpPct

	if c.config.ATRMultiplier > 0 && atr*c.config.ATRMultiplier > stopDist && slPct > 0 {
		stopDist = atr * c.config.ATRMultiplier
		takeDist = stopDist * tpPct / slPct
	}

	var sl, tp float64
	switch direction {
	case models.Long:
		sl, tp = entry-stopDist, entry+takeDist
	case models.Short:
		sl, tp = entry+stopDist, entry-takeDist
	default:
		band := entry * slPct * c.config.NeutralBandFactor
		sl, tp = entry-band, entry+band
	}

	return Levels{
		StopLoss:   c.round(sl),
		TakeProfit: c.round(tp),
		RiskReward: roundTo(c.riskReward(entry, sl, tp), 4),
	}
}

// Apply заполняет уровни сигнала по его направлению, цене входа и ATR
func (c *Calculator) Apply(sig *models.Signal) {
	lv := c.Levels(sig.Direction, sig.EntryPrice, sig.Indicators.ATR, sig.Timeframe)
	sig.StopLoss = lv.StopLoss
	sig.TakeProfit = lv.TakeProfit
	sig.RiskReward = lv.RiskReward
}

// row строка таблицы для таймфрейма, для неизвестного берется резервный таймфрейм
func (c *Calculator) row(tf models.Timeframe) config.RiskLevel {
	if row, ok := c.config.Table[string(tf)]; ok {
		return row
	}
	if row, ok := c.config.Table[c.config.FallbackTimeframe]; ok {
		return row
	}
	return config.DefaultRiskTable()[string(models.TF1h)]
}

// riskReward никогда не возвращает NaN или Inf
func (c *Calculator) riskReward(entry, sl, tp float64) float64 {
	risk := math.Abs(entry - sl)
	if risk == 0 {
		risk = math.Abs(entry) * c.config.MinRiskPercent / 100
	}
	if risk == 0 {
		risk = epsilon
	}

	rr := math.Abs(tp-entry) / risk
	if math.IsNaN(rr) || math.IsInf(rr, 0) {
		return 0
	}
	return rr
}

func (c *Calculator) round(v float64) float64 {
	return roundTo(v, c.config.PriceDecimals)
}

func roundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
