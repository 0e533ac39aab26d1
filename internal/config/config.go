package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/skalibog/mtfa/pkg/logger"
	"github.com/skalibog/mtfa/pkg/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Binance  BinanceConfig  `yaml:"binance"`
	Trading  TradingConfig  `yaml:"trading"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Cache    CacheConfig    `yaml:"cache"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

// TradingConfig содержит отслеживаемые символы и таймфреймы
type TradingConfig struct {
	Symbols     []string `yaml:"symbols" default:"[\"BTCUSDT\"]" validate:"required,min=1,dive,required"`
	Timeframes  []string `yaml:"timeframes" default:"[\"1m\",\"5m\",\"15m\",\"30m\",\"1h\",\"4h\",\"1d\",\"3d\",\"1w\",\"1M\"]" validate:"required,min=1,dive,oneof=1m 5m 15m 30m 1h 4h 1d 3d 1w 1M"`
	CandleLimit int      `yaml:"candle_limit" default:"200" validate:"gte=50,lte=1500"`
}

// AnalysisConfig содержит настройки аналитических модулей
type AnalysisConfig struct {
	IntervalSeconds int               `yaml:"interval_seconds" default:"60" validate:"gt=0"`
	Workers         int               `yaml:"workers" default:"4" validate:"gt=0"`
	Technical       TechnicalConfig   `yaml:"technical"`
	Levels          LevelsConfig      `yaml:"levels"`
	VolumeDelta     VolumeDeltaConfig `yaml:"volume_delta"`
	Scoring         ScoringConfig     `yaml:"scoring"`
	Risk            RiskConfig        `yaml:"risk"`
	Harmonizer      HarmonizerConfig  `yaml:"harmonizer"`
}

// TechnicalConfig периоды индикаторов
type TechnicalConfig struct {
	RSIPeriod   int     `yaml:"rsi_period" default:"14" validate:"gt=0"`
	MACDFast    int     `yaml:"macd_fast" default:"12" validate:"gt=0"`
	MACDSlow    int     `yaml:"macd_slow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal  int     `yaml:"macd_signal" default:"9" validate:"gt=0"`
	BBPeriod    int     `yaml:"bb_period" default:"20" validate:"gt=1"`
	BBDeviation float64 `yaml:"bb_deviation" default:"2" validate:"gt=0"`
	StochK      int     `yaml:"stoch_k" default:"14" validate:"gt=0"`
	StochD      int     `yaml:"stoch_d" default:"3" validate:"gt=0"`
	ADXPeriod   int     `yaml:"adx_period" default:"14" validate:"gt=0"`
	ATRPeriod   int     `yaml:"atr_period" default:"14" validate:"gt=0"`
	EMAFast     int     `yaml:"ema_fast" default:"12" validate:"gt=0"`
	EMASlow     int     `yaml:"ema_slow" default:"26" validate:"gtfield=EMAFast"`
	EMATrend    int     `yaml:"ema_trend" default:"50" validate:"gtfield=EMASlow"`
	SMAShort    int     `yaml:"sma_short" default:"20" validate:"gt=1"`
	SMALong     int     `yaml:"sma_long" default:"50" validate:"gtfield=SMAShort"`
}

// LevelsConfig настройки поиска уровней и паттернов
type LevelsConfig struct {
	SwingLookback   int     `yaml:"swing_lookback" default:"5" validate:"gt=0"`
	MaxLevels       int     `yaml:"max_levels" default:"3" validate:"gt=0"`
	MergeTolerance  float64 `yaml:"merge_tolerance" default:"0.005" validate:"gte=0,lt=1"`
	DojiBodyRatio   float64 `yaml:"doji_body_ratio" default:"0.2" validate:"gt=0,lt=1"`
	HammerWickRatio float64 `yaml:"hammer_wick_ratio" default:"1.5" validate:"gt=0"`
	DoubleTolerance float64 `yaml:"double_tolerance" default:"0.005" validate:"gte=0,lt=1"`
}

// VolumeDeltaConfig настройки анализа объемов
type VolumeDeltaConfig struct {
	Lookback              int     `yaml:"lookback" default:"20" validate:"gt=0"`
	AverageWindow         int     `yaml:"average_window" default:"20" validate:"gt=0"`
	ImpulseBars           int     `yaml:"impulse_bars" default:"10" validate:"gt=0"`
	SignificanceThreshold float64 `yaml:"significance_threshold" default:"2" validate:"gt=1"`
}

// CacheConfig настройки кэша сигналов
type CacheConfig struct {
	Enabled       bool  `yaml:"enabled" default:"true"`
	MaxEntries    int   `yaml:"max_entries" default:"256" validate:"gt=0"`
	PriceDecimals int32 `yaml:"price_decimals" default:"2" validate:"gte=0,lte=12"`
}

// StorageConfig настройки хранения данных
type StorageConfig struct {
	Type          string `yaml:"type" default:"memory" validate:"oneof=memory influxdb"`
	URL           string `yaml:"url" default:"http://localhost:8086"`
	Token         string `yaml:"token"`
	Organization  string `yaml:"organization"`
	Bucket        string `yaml:"bucket" default:"mtfa"`
	RetentionDays int    `yaml:"retention_days" default:"30" validate:"gt=0"`
	MaxCandles    int    `yaml:"max_candles" default:"1500" validate:"gt=0"` // на серию, только для memory
	MaxSignals    int    `yaml:"max_signals" default:"1000" validate:"gt=0"`
}

// MetricsConfig настройки экспорта метрик
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Addr    string `yaml:"addr" default:":9090"`
	Path    string `yaml:"path" default:"/metrics"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level    string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	File     string `yaml:"file"`
	JSONFile string `yaml:"json_file"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		// теги значений по умолчанию статичны, ошибка здесь означает опечатку в коде
		panic(fmt.Sprintf("config: некорректные значения по умолчанию: %v", err))
	}
	return &cfg
}

// Load загружает конфигурацию из файла поверх значений по умолчанию
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	logger.Debug("Загружена конфигурация", zap.String("path", path), zap.Any("config", cfg))
	logger.Info("Загружена конфигурация", zap.Strings("symbols", cfg.Trading.Symbols), zap.Strings("timeframes", cfg.Trading.Timeframes))
	return cfg, nil
}

// Parse разбирает YAML поверх значений по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return cfg, nil
}

// Validate проверяет теги и межполевые ограничения
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Analysis.Scoring.Weights.TotalPossible() <= 0 {
		return fmt.Errorf("analysis.scoring.weights: сумма весов должна быть положительной")
	}
	if c.Analysis.Scoring.MinConfidence > c.Analysis.Scoring.MaxConfidence {
		return fmt.Errorf("analysis.scoring: min_confidence %.2f больше max_confidence %.2f",
			c.Analysis.Scoring.MinConfidence, c.Analysis.Scoring.MaxConfidence)
	}
	if c.Storage.MaxCandles < c.Trading.CandleLimit {
		return fmt.Errorf("storage.max_candles %d меньше trading.candle_limit %d",
			c.Storage.MaxCandles, c.Trading.CandleLimit)
	}
	for label := range c.Analysis.Risk.Table {
		if _, err := models.ParseTimeframe(label); err != nil {
			return fmt.Errorf("analysis.risk.table: %w", err)
		}
	}
	return nil
}

// ParsedTimeframes возвращает разобранные таймфреймы в порядке иерархии
func (t TradingConfig) ParsedTimeframes() []models.Timeframe {
	enabled := make(map[models.Timeframe]bool, len(t.Timeframes))
	for _, s := range t.Timeframes {
		if tf, err := models.ParseTimeframe(s); err == nil {
			enabled[tf] = true
		}
	}

	result := make([]models.Timeframe, 0, len(enabled))
	for _, tf := range models.Hierarchy {
		if enabled[tf] {
			result = append(result, tf)
		}
	}
	return result
}
