package levels

import (
	"math"

	"github.com/skalibog/mtfa/pkg/models"
)

// Имена паттернов
const (
	Doji             = "doji"
	Hammer           = "hammer"
	ShootingStar     = "shooting_star"
	BullishEngulfing = "bullish_engulfing"
	BearishEngulfing = "bearish_engulfing"
	DoubleTop        = "double_top"
	DoubleBottom     = "double_bottom"
)

// DetectPatterns ищет паттерны на последних свечах серии.
// Результат носит вспомогательный характер и учитывается в оценке с малым весом.
func (d *Detector) DetectPatterns(candles []*models.Candle) []models.Pattern {
	if len(candles) == 0 {
		return nil
	}

	var patterns []models.Pattern
	last := len(candles) - 1

	if p, ok := d.singleCandle(candles[last], last); ok {
		patterns = append(patterns, p)
	}
	if last > 0 {
		if p, ok := engulfing(candles[last-1], candles[last], last); ok {
			patterns = append(patterns, p)
		}
	}
	patterns = append(patterns, d.doubles(candles)...)

	return patterns
}

// singleCandle: doji, молот, падающая звезда
func (d *Detector) singleCandle(c *models.Candle, idx int) (models.Pattern, bool) {
	rng := c.High - c.Low
	if rng <= 0 {
		return models.Pattern{}, false
	}

	body := math.Abs(c.Close - c.Open)
	upperWick := c.High - math.Max(c.Open, c.Close)
	lowerWick := math.Min(c.Open, c.Close) - c.Low

	switch {
	case body < d.config.DojiBodyRatio*rng:
		return models.Pattern{Name: Doji, Bias: models.Neutral, Index: idx}, true
	case lowerWick > d.config.HammerWickRatio*body && upperWick <= body:
		return models.Pattern{Name: Hammer, Bias: models.Long, Index: idx}, true
	case upperWick > d.config.HammerWickRatio*body && lowerWick <= body:
		return models.Pattern{Name: ShootingStar, Bias: models.Short, Index: idx}, true
	}
	return models.Pattern{}, false
}

// engulfing: тело текущей свечи полностью перекрывает тело предыдущей противоположного цвета
func engulfing(prev, cur *models.Candle, idx int) (models.Pattern, bool) {
	prevBody := math.Abs(prev.Close - prev.Open)
	curBody := math.Abs(cur.Close - cur.Open)
	if curBody <= prevBody {
		return models.Pattern{}, false
	}

	switch {
	case prev.Close < prev.Open && cur.Close > cur.Open &&
		cur.Open <= prev.Close && cur.Close >= prev.Open:
		return models.Pattern{Name: BullishEngulfing, Bias: models.Long, Index: idx}, true
	case prev.Close > prev.Open && cur.Close < cur.Open &&
		cur.Open >= prev.Close && cur.Close <= prev.Open:
		return models.Pattern{Name: BearishEngulfing, Bias: models.Short, Index: idx}, true
	}
	return models.Pattern{}, false
}

// doubles: двойная вершина и двойное дно по двум последним экстремумам
func (d *Detector) doubles(candles []*models.Candle) []models.Pattern {
	highs, lows := SwingPoints(candles, d.config.SwingLookback)

	var patterns []models.Pattern
	if n := len(highs); n >= 2 {
		a, b := candles[highs[n-2]].High, candles[highs[n-1]].High
		if relativeDiff(a, b) <= d.config.DoubleTolerance {
			patterns = append(patterns, models.Pattern{Name: DoubleTop, Bias: models.Short, Index: highs[n-1]})
		}
	}
	if n := len(lows); n >= 2 {
		a, b := candles[lows[n-2]].Low, candles[lows[n-1]].Low
		if relativeDiff(a, b) <= d.config.DoubleTolerance {
			patterns = append(patterns, models.Pattern{Name: DoubleBottom, Bias: models.Long, Index: lows[n-1]})
		}
	}
	return patterns
}

// Bias чистый перевес паттернов: +1 за каждый бычий, -1 за каждый медвежий
func Bias(patterns []models.Pattern) int {
	var bias int
	for _, p := range patterns {
		switch p.Bias {
		case models.Long:
			bias++
		case models.Short:
			bias--
		}
	}
	return bias
}
