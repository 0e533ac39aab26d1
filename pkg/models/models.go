package models

import (
	"time"
)

// Candle представляет свечу
type Candle struct {
	Symbol    string
	Interval  string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// Valid проверяет согласованность OHLCV
func (c *Candle) Valid() bool {
	if c.Volume < 0 {
		return false
	}
	if c.High < c.Open || c.High < c.Close || c.High < c.Low {
		return false
	}
	return c.Low <= c.Open && c.Low <= c.Close
}

// Direction направление сигнала
type Direction string

const (
	Long    Direction = "LONG"
	Short   Direction = "SHORT"
	Neutral Direction = "NEUTRAL"
)

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return Neutral
	}
}

// Signal представляет сигнал для одного таймфрейма
type Signal struct {
	Symbol     string
	Timeframe  Timeframe
	Direction  Direction
	Confidence float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	RiskReward float64
	Indicators IndicatorSnapshot
	Timestamp  time.Time
}

// TimeframeSet набор сигналов по всем таймфреймам одного актива
type TimeframeSet struct {
	Symbol  string
	Price   float64
	Signals map[Timeframe]*Signal
}

// NewTimeframeSet создает пустой набор
func NewTimeframeSet(symbol string, price float64) *TimeframeSet {
	return &TimeframeSet{
		Symbol:  symbol,
		Price:   price,
		Signals: make(map[Timeframe]*Signal),
	}
}

// Get возвращает сигнал таймфрейма
func (s *TimeframeSet) Get(tf Timeframe) (*Signal, bool) {
	sig, ok := s.Signals[tf]
	return sig, ok
}

// Ordered возвращает сигналы от младшего таймфрейма к старшему, пропуская отсутствующие
func (s *TimeframeSet) Ordered() []*Signal {
	result := make([]*Signal, 0, len(s.Signals))
	for _, tf := range Hierarchy {
		if sig, ok := s.Signals[tf]; ok && sig != nil {
			result = append(result, sig)
		}
	}
	return result
}

// Closes извлекает цены закрытия
func Closes(candles []*Candle) []float64 {
	result := make([]float64, len(candles))
	for i, c := range candles {
		result[i] = c.Close
	}
	return result
}

// Highs извлекает максимумы
func Highs(candles []*Candle) []float64 {
	result := make([]float64, len(candles))
	for i, c := range candles {
		result[i] = c.High
	}
	return result
}

// Lows извлекает минимумы
func Lows(candles []*Candle) []float64 {
	result := make([]float64, len(candles))
	for i, c := range candles {
		result[i] = c.Low
	}
	return result
}

// Volumes извлекает объемы
func Volumes(candles []*Candle) []float64 {
	result := make([]float64, len(candles))
	for i, c := range candles {
		result[i] = c.Volume
	}
	return result
}
