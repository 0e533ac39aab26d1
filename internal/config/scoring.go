package config

import "math"

// ScoringConfig единая таблица весов и порогов оценщика сигналов
type ScoringConfig struct {
	MinBars                int     `yaml:"min_bars" default:"50" validate:"gt=0"`
	ConfluenceThreshold    float64 `yaml:"confluence_threshold" default:"0.65" validate:"gte=0,lte=1"`
	InsufficientConfidence float64 `yaml:"insufficient_confidence" default:"30" validate:"gte=0,lte=100"`
	MinConfidence          float64 `yaml:"min_confidence" default:"35" validate:"gte=0,lte=100"`
	MaxConfidence          float64 `yaml:"max_confidence" default:"95" validate:"gte=0,lte=100"`

	RSIOverbought        float64 `yaml:"rsi_overbought" default:"70" validate:"gt=0,lte=100"`
	RSIOversold          float64 `yaml:"rsi_oversold" default:"30" validate:"gte=0,ltfield=RSIOverbought"`
	BBUpperZone          float64 `yaml:"bb_upper_zone" default:"0.8" validate:"gt=0,lte=1"`
	BBLowerZone          float64 `yaml:"bb_lower_zone" default:"0.2" validate:"gte=0,ltfield=BBUpperZone"`
	StochOverbought      float64 `yaml:"stoch_overbought" default:"80" validate:"gt=0,lte=100"`
	StochOversold        float64 `yaml:"stoch_oversold" default:"20" validate:"gte=0,ltfield=StochOverbought"`
	ADXTrendThreshold    float64 `yaml:"adx_trend_threshold" default:"25" validate:"gte=0,lte=100"`
	VolatilityExhaustion float64 `yaml:"volatility_exhaustion" default:"4" validate:"gt=0"`
	LevelProximity       float64 `yaml:"level_proximity" default:"0.005" validate:"gte=0,lt=1"`

	Weights    VoteWeights       `yaml:"weights"`
	Confidence ConfidenceFactors `yaml:"confidence"`
}

// VoteWeights веса голосов отдельных индикаторов
type VoteWeights struct {
	RSI                float64 `yaml:"rsi" default:"7" validate:"gte=0"`
	MACD               float64 `yaml:"macd" default:"13" validate:"gte=0"`
	EMA                float64 `yaml:"ema" default:"15" validate:"gte=0"`
	Bollinger          float64 `yaml:"bollinger" default:"9" validate:"gte=0"`
	Stochastic         float64 `yaml:"stochastic" default:"5" validate:"gte=0"`
	VolatilityTrending float64 `yaml:"volatility_trending" default:"12" validate:"gte=0"`
	VolatilityRanging  float64 `yaml:"volatility_ranging" default:"8" validate:"gte=0"`
	Levels             float64 `yaml:"levels" default:"3" validate:"gte=0"`
	Patterns           float64 `yaml:"patterns" default:"3" validate:"gte=0"`
}

// TotalPossible сумма максимально возможных весов (голос волатильности учитывается один раз)
func (w VoteWeights) TotalPossible() float64 {
	return w.RSI + w.MACD + w.EMA + w.Bollinger + w.Stochastic +
		math.Max(w.VolatilityTrending, w.VolatilityRanging) +
		w.Levels + w.Patterns
}

// ConfidenceFactors слагаемые уверенности
type ConfidenceFactors struct {
	ConfluenceScale float64 `yaml:"confluence_scale" default:"40" validate:"gte=0"`

	TrendAgree    float64 `yaml:"trend_agree" default:"30" validate:"gte=0"`
	TrendNeutral  float64 `yaml:"trend_neutral" default:"15" validate:"gte=0"`
	TrendDisagree float64 `yaml:"trend_disagree" default:"5" validate:"gte=0"`

	MomentumStrongThreshold   float64 `yaml:"momentum_strong_threshold" default:"2" validate:"gte=0"`
	MomentumModerateThreshold float64 `yaml:"momentum_moderate_threshold" default:"1" validate:"gte=0"`
	MomentumStrong            float64 `yaml:"momentum_strong" default:"15" validate:"gte=0"`
	MomentumModerate          float64 `yaml:"momentum_moderate" default:"10" validate:"gte=0"`
	MomentumWeak              float64 `yaml:"momentum_weak" default:"5" validate:"gte=0"`

	VolumeHighRatio   float64 `yaml:"volume_high_ratio" default:"1.5" validate:"gte=0"`
	VolumeNormalRatio float64 `yaml:"volume_normal_ratio" default:"1" validate:"gte=0"`
	VolumeHigh        float64 `yaml:"volume_high" default:"10" validate:"gte=0"`
	VolumeNormal      float64 `yaml:"volume_normal" default:"6" validate:"gte=0"`
	VolumeLow         float64 `yaml:"volume_low" default:"2" validate:"gte=0"`

	StructureTrending float64 `yaml:"structure_trending" default:"5" validate:"gte=0"`
	StructureRanging  float64 `yaml:"structure_ranging" default:"2" validate:"gte=0"`
}

// HarmonizerConfig параметры согласования таймфреймов
type HarmonizerConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" default:"75" validate:"gte=0,lte=100"`
	Step                float64 `yaml:"step" default:"0.05" validate:"gte=0,lte=1"`
	MaxInfluence        float64 `yaml:"max_influence" default:"0.3" validate:"gte=0,lte=1"`
	DirectionThreshold  float64 `yaml:"direction_threshold" default:"0.2" validate:"gte=0,lte=1"`
}
