package models

// SnapshotVersion версия формата IndicatorSnapshot
const SnapshotVersion = 1

// MACDValue линия, сигнальная линия и гистограмма MACD
type MACDValue struct {
	Value     float64
	Signal    float64
	Histogram float64
}

// EMAStack быстрая (12), медленная (26) и трендовая (50) EMA
type EMAStack struct {
	Fast  float64
	Slow  float64
	Trend float64
}

// Order возвращает направление, в котором выстроены EMA, или Neutral
func (e EMAStack) Order() Direction {
	switch {
	case e.Fast > e.Slow && e.Slow > e.Trend:
		return Long
	case e.Fast < e.Slow && e.Slow < e.Trend:
		return Short
	default:
		return Neutral
	}
}

// BollingerValue полосы Боллинджера и позиция цены внутри них (0..1)
type BollingerValue struct {
	Upper    float64
	Middle   float64
	Lower    float64
	Position float64
}

// StochasticValue %K и %D
type StochasticValue struct {
	K float64
	D float64
}

// ADXValue сила тренда и направленные компоненты
type ADXValue struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// Levels уровни поддержки и сопротивления, по возрастанию
type Levels struct {
	Supports    []float64
	Resistances []float64
}

// Pattern найденный свечной или графический паттерн
type Pattern struct {
	Name  string
	Bias  Direction
	Index int
}

// IndicatorSnapshot последние значения всех индикаторов для одной серии свечей
type IndicatorSnapshot struct {
	Version     int
	Bars        int
	Price       float64
	RSI         float64
	MACD        MACDValue
	EMA         EMAStack
	Bollinger   BollingerValue
	Stochastic  StochasticValue
	ADX         ADXValue
	ATR         float64
	SMA20       float64
	SMA50       float64
	Momentum    float64 // %, (SMA20-SMA50)/SMA50
	VolumeRatio float64
	VolumeDelta float64 // -100..100, только для диагностики, в голосовании не участвует
	Levels      Levels
	Patterns    []Pattern
}
