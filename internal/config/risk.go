package config

// RiskLevel проценты стоп-лосса и тейк-профита для таймфрейма
type RiskLevel struct {
	StopLossPercent   float64 `yaml:"stop_loss_percent" validate:"gt=0,lt=100"`
	TakeProfitPercent float64 `yaml:"take_profit_percent" validate:"gt=0"`
}

// RiskConfig параметры расчета уровней риска
type RiskConfig struct {
	Table             map[string]RiskLevel `yaml:"table" validate:"dive"`
	FallbackTimeframe string               `yaml:"fallback_timeframe" default:"1h"`
	NeutralBandFactor float64              `yaml:"neutral_band_factor" default:"0.5" validate:"gt=0,lte=1"`
	MinRiskPercent    float64              `yaml:"min_risk_percent" default:"0.1" validate:"gt=0"`
	ATRMultiplier     float64              `yaml:"atr_multiplier" validate:"gte=0"`
	PriceDecimals     int32                `yaml:"price_decimals" default:"8" validate:"gte=0,lte=16"`
}

// SetDefaults заполняет таблицу уровней, если она не задана
func (r *RiskConfig) SetDefaults() {
	if r.Table == nil {
		r.Table = DefaultRiskTable()
	}
}

// DefaultRiskTable стандартная таблица процентов по таймфреймам
func DefaultRiskTable() map[string]RiskLevel {
	return map[string]RiskLevel{
		"1m":  {StopLossPercent: 0.15, TakeProfitPercent: 0.30},
		"5m":  {StopLossPercent: 0.30, TakeProfitPercent: 0.60},
		"15m": {StopLossPercent: 0.50, TakeProfitPercent: 1.00},
		"30m": {StopLossPercent: 0.75, TakeProfitPercent: 1.50},
		"1h":  {StopLossPercent: 1.00, TakeProfitPercent: 2.00},
		"4h":  {StopLossPercent: 2.00, TakeProfitPercent: 4.50},
		"1d":  {StopLossPercent: 3.00, TakeProfitPercent: 7.50},
		"3d":  {StopLossPercent: 4.50, TakeProfitPercent: 11.25},
		"1w":  {StopLossPercent: 6.00, TakeProfitPercent: 15.00},
		"1M":  {StopLossPercent: 8.00, TakeProfitPercent: 24.00},
	}
}
