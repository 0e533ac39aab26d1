package indicators

import "github.com/skalibog/mtfa/pkg/models"

// Стандартные периоды MACD
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACD рассчитывает MACD 12/26/9
func MACD(candles []*models.Candle) models.MACDValue {
	return MACDWithPeriods(candles, MACDFast, MACDSlow, MACDSignal)
}

// MACDWithPeriods рассчитывает MACD с произвольными периодами.
// Сигнальная линия строится как EMA ряда MACD, а не цены, и только по индексам,
// где определены обе EMA. Пока сигнальная линия не определена, она равна линии MACD.
func MACDWithPeriods(candles []*models.Candle, fast, slow, signal int) models.MACDValue {
	if fast <= 0 || slow <= fast || len(candles) < slow {
		return models.MACDValue{}
	}

	closes := models.Closes(candles)
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	// fastEMA[i+offset] и slowEMA[i] относятся к одной свече
	offset := slow - fast
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}

	value := line[len(line)-1]
	signalEMA := EMA(line, signal)
	if len(signalEMA) == 0 {
		return models.MACDValue{Value: value, Signal: value}
	}

	sig := signalEMA[len(signalEMA)-1]
	return models.MACDValue{
		Value:     value,
		Signal:    sig,
		Histogram: value - sig,
	}
}
