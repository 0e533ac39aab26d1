// Package indicators содержит чистые функции технических индикаторов.
//
// Все функции тотальны: при недостаточной истории они возвращают
// задокументированное нейтральное значение и никогда не паникуют.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Нейтральные значения при недостаточной истории
const (
	DefaultRSI        = 50.0
	DefaultStochastic = 50.0
	DefaultADX        = 25.0
	DefaultPosition   = 0.5
)

// EMA возвращает определенную часть ряда EMA: первый элемент соответствует values[period-1].
// Для ряда короче period возвращает nil.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	if period == 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	return talib.Ema(values, period)[period-1:]
}

// LastEMA последнее значение EMA или 0, если EMA не определена
func LastEMA(values []float64, period int) float64 {
	ema := EMA(values, period)
	if len(ema) == 0 {
		return 0
	}
	return ema[len(ema)-1]
}

// SMA последнее простое среднее или 0, если данных меньше period
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	if period == 1 {
		return values[len(values)-1]
	}
	sma := talib.Sma(values, period)
	return sma[len(sma)-1]
}

// Mean среднее арифметическое, 0 для пустого ряда
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
