package indicators

import (
	"github.com/markcheno/go-talib"
	"github.com/skalibog/mtfa/pkg/models"
)

// Bollinger рассчитывает полосы Боллинджера по последней цене закрытия.
// Средняя линия SMA(period), ширина k стандартных отклонений генеральной совокупности.
func Bollinger(candles []*models.Candle, period int, k float64) models.BollingerValue {
	if len(candles) == 0 {
		return models.BollingerValue{Position: DefaultPosition}
	}

	price := candles[len(candles)-1].Close
	if period <= 0 || len(candles) < period {
		return models.BollingerValue{
			Upper:    price,
			Middle:   price,
			Lower:    price,
			Position: DefaultPosition,
		}
	}

	closes := models.Closes(candles)
	middle := SMA(closes, period)

	var deviation float64
	if period > 1 {
		sd := talib.StdDev(closes, period, 1.0)
		deviation = sd[len(sd)-1]
	}

	band := k * deviation
	upper := middle + band
	lower := middle - band

	return models.BollingerValue{
		Upper:    upper,
		Middle:   middle,
		Lower:    lower,
		Position: BandPosition(upper, lower, price),
	}
}

// BandPosition положение цены внутри полос, ограниченное [0,1].
// При нулевой ширине полос возвращает DefaultPosition.
func BandPosition(upper, lower, price float64) float64 {
	width := upper - lower
	if width <= 0 {
		return DefaultPosition
	}
	return clamp((price-lower)/width, 0, 1)
}
