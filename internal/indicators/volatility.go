package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/skalibog/mtfa/pkg/models"
)

// TrueRange возвращает истинный диапазон каждой свечи.
// Для первой свечи это high-low, так как предыдущего закрытия нет.
func TrueRange(candles []*models.Candle) []float64 {
	if len(candles) == 0 {
		return nil
	}
	tr := talib.TRange(models.Highs(candles), models.Lows(candles), models.Closes(candles))
	tr[0] = candles[0].High - candles[0].Low
	return tr
}

// ATR среднее истинного диапазона за последние period свечей, 0 при недостатке данных
func ATR(candles []*models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}
	tr := TrueRange(candles)
	return Mean(tr[len(tr)-period:])
}

// ADX рассчитывает индекс направленного движения по средним за period свечей.
// Движение засчитывается, только если оно положительно и больше противоположного.
// При недостатке данных ADX = DefaultADX, при отсутствии движения DX = 0.
func ADX(candles []*models.Candle, period int) models.ADXValue {
	if period <= 0 || len(candles) < period+1 {
		return models.ADXValue{ADX: DefaultADX}
	}

	tr := TrueRange(candles)

	var sumTR, sumPlus, sumMinus float64
	for i := len(candles) - period; i < len(candles); i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low

		if up > down && up > 0 {
			sumPlus += up
		}
		if down > up && down > 0 {
			sumMinus += down
		}
		sumTR += tr[i]
	}

	p := float64(period)
	avgTR := sumTR / p
	if avgTR <= 0 {
		return models.ADXValue{}
	}

	plusDI := 100 * (sumPlus / p) / avgTR
	minusDI := 100 * (sumMinus / p) / avgTR

	var dx float64
	if sum := plusDI + minusDI; sum > 0 {
		dx = math.Abs(plusDI-minusDI) / sum * 100
	}

	return models.ADXValue{
		ADX:     dx,
		PlusDI:  plusDI,
		MinusDI: minusDI,
	}
}
