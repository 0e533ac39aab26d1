package volumedelta

import (
	"math"

	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

// Analyzer реализует анализатор дельты объемов.
// Свечи ожидаются в порядке возрастания времени, последняя свеча самая свежая.
type Analyzer struct {
	config config.VolumeDeltaConfig
}

// NewAnalyzer создает новый анализатор дельты объемов
func NewAnalyzer(cfg config.VolumeDeltaConfig) *Analyzer {
	return &Analyzer{
		config: cfg,
	}
}

// Analyze возвращает дельту объемов от -100 до 100 и отношение последнего объема к среднему
func (a *Analyzer) Analyze(candles []*models.Candle) (delta, ratio float64) {
	return a.Delta(candles), a.Ratio(candles)
}

// Delta комбинирует кумулятивную дельту, импульсы и связь объема с ценой
func (a *Analyzer) Delta(candles []*models.Candle) float64 {
	// Комбинируем сигналы с весами
	weighted := (a.CumulativeDelta(candles) * 0.5) +
		(a.impulses(candles) * 0.3) +
		(a.volumePriceRelation(candles) * 0.2)

	return clamp(weighted)
}

// Ratio отношение объема последней свечи к среднему за AverageWindow свечей, включая текущую.
// При недостатке данных или нулевом среднем возвращает 1.
func (a *Analyzer) Ratio(candles []*models.Candle) float64 {
	window := a.config.AverageWindow
	if window <= 0 || len(candles) < window {
		return 1
	}

	var total float64
	for _, c := range candles[len(candles)-window:] {
		total += c.Volume
	}
	avg := total / float64(window)
	if avg <= 0 {
		return 1
	}
	return candles[len(candles)-1].Volume / avg
}

// CumulativeDelta анализирует кумулятивную дельту объемов за последние Lookback свечей
func (a *Analyzer) CumulativeDelta(candles []*models.Candle) float64 {
	lookback := a.config.Lookback
	if lookback <= 0 || len(candles) == 0 {
		return 0
	}

	var cumulativeDelta, totalVolume float64
	for i := 0; i < lookback && i < len(candles); i++ {
		candle := candles[len(candles)-1-i]

		// Объем бычьей свечи считаем положительным, медвежьей отрицательным
		delta := candle.Volume
		if candle.Close < candle.Open {
			delta = -delta
		}

		// Взвешиваем более недавние свечи сильнее
		weight := 1.0 - (float64(i) / float64(lookback))

		cumulativeDelta += delta * weight
		totalVolume += math.Abs(delta) * weight
	}

	if totalVolume == 0 {
		return 0
	}

	return cumulativeDelta / totalVolume * 100
}

// impulses ищет свечи с объемом выше среднего в SignificanceThreshold раз
func (a *Analyzer) impulses(candles []*models.Candle) float64 {
	window := a.config.AverageWindow
	if window <= 0 || len(candles) < window {
		return 0
	}

	var totalVolume float64
	for _, c := range candles[len(candles)-window:] {
		totalVolume += c.Volume
	}
	avgVolume := totalVolume / float64(window)
	if avgVolume == 0 {
		return 0
	}

	threshold := a.config.SignificanceThreshold
	var signal float64
	for i := 0; i < a.config.ImpulseBars && i < len(candles); i++ {
		candle := candles[len(candles)-1-i]

		volumeRatio := candle.Volume / avgVolume
		if volumeRatio < threshold {
			continue
		}

		// Сила пропорциональна превышению среднего
		strength := math.Min((volumeRatio-1.0)*10, threshold*10)
		switch {
		case candle.Close > candle.Open:
			signal += strength
		case candle.Close < candle.Open:
			signal -= strength
		}
	}

	return clamp(signal)
}

// volumePriceRelation анализирует соотношение изменений объема и цены
func (a *Analyzer) volumePriceRelation(candles []*models.Candle) float64 {
	var signal float64
	for i := 1; i < a.config.Lookback && i < len(candles); i++ {
		current := candles[len(candles)-i]
		previous := candles[len(candles)-1-i]
		if previous.Volume == 0 || previous.Close == 0 {
			continue
		}

		volumeChange := (current.Volume - previous.Volume) / previous.Volume
		priceChange := (current.Close - previous.Close) / previous.Close

		switch {
		case priceChange > 0 && volumeChange < -0.1:
			// Рост на падающем объеме слабый
			signal -= 5
		case priceChange < 0 && volumeChange < -0.1:
			// Падение на затухающем объеме, близок разворот вверх
			signal += 10
		case priceChange > 0 && volumeChange > 0.1:
			signal += 10
		case priceChange < 0 && volumeChange > 0.1:
			signal -= 20
		}
	}

	return clamp(signal)
}

func clamp(v float64) float64 {
	return math.Max(math.Min(v, 100), -100)
}
