package indicators

import "github.com/skalibog/mtfa/pkg/models"

// RSI рассчитывает индекс относительной силы по Уайлдеру.
// Начальные средние берутся как простое среднее первых period изменений,
// далее сглаживание avg = (avg*(period-1) + current) / period.
// Возвращает DefaultRSI, если свечей меньше period+1, и 100 при нулевом среднем убытке.
func RSI(candles []*models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return DefaultRSI
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}

	p := float64(period)
	avgGain := gain / p
	avgLoss := loss / p

	for i := period + 1; i < len(candles); i++ {
		delta := candles[i].Close - candles[i-1].Close
		g, l := 0.0, 0.0
		if delta > 0 {
			g = delta
		} else {
			l = -delta
		}
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
	}

	return rsiValue(avgGain, avgLoss)
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return clamp(100-100/(1+rs), 0, 100)
}
