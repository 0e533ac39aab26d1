package indicators

import (
	"github.com/markcheno/go-talib"
	"github.com/skalibog/mtfa/pkg/models"
)

// Stochastic рассчитывает %K за kPeriod свечей и %D как SMA последних dPeriod значений %K.
// При недостаточной истории возвращает 50/50, при нулевом диапазоне %K = 50.
func Stochastic(candles []*models.Candle, kPeriod, dPeriod int) models.StochasticValue {
	if kPeriod <= 0 || len(candles) < kPeriod {
		return models.StochasticValue{K: DefaultStochastic, D: DefaultStochastic}
	}
	if dPeriod <= 0 {
		dPeriod = 1
	}

	highs := models.Highs(candles)
	lows := models.Lows(candles)
	highest, lowest := highs, lows
	if kPeriod > 1 {
		highest = talib.Max(highs, kPeriod)
		lowest = talib.Min(lows, kPeriod)
	}

	start := len(candles) - dPeriod
	if start < kPeriod-1 {
		start = kPeriod - 1
	}

	ks := make([]float64, 0, len(candles)-start)
	for i := start; i < len(candles); i++ {
		ks = append(ks, percentK(candles[i].Close, highest[i], lowest[i]))
	}

	return models.StochasticValue{
		K: ks[len(ks)-1],
		D: clamp(Mean(ks), 0, 100),
	}
}

func percentK(price, highest, lowest float64) float64 {
	rng := highest - lowest
	if rng <= 0 {
		return DefaultStochastic
	}
	return clamp((price-lowest)/rng*100, 0, 100)
}
