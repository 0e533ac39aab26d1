package levels

import (
	"testing"

	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

func testConfig() config.LevelsConfig {
	return config.LevelsConfig{
		SwingLookback:   2,
		MaxLevels:       3,
		MergeTolerance:  0.005,
		DojiBodyRatio:   0.2,
		HammerWickRatio: 1.5,
		DoubleTolerance: 0.005,
	}
}

func ohlc(o, h, l, c float64) *models.Candle {
	return &models.Candle{Open: o, High: h, Low: l, Close: c, Volume: 1}
}

// fromHighs строит свечи с заданными максимумами и минимумами на 0.5 ниже
func fromHighs(highs ...float64) []*models.Candle {
	candles := make([]*models.Candle, len(highs))
	for i, h := range highs {
		candles[i] = ohlc(h-0.25, h, h-0.5, h-0.25)
	}
	return candles
}

// valleys строит по одной V-образной впадине на каждое значение минимума
func valleys(lows ...float64) []*models.Candle {
	var candles []*models.Candle
	for _, v := range lows {
		for _, off := range []float64{2, 1, 0, 1, 2} {
			low := v + off
			candles = append(candles, ohlc(low+0.5, low+1, low, low+0.5))
		}
	}
	return candles
}

func TestSwingPoints(t *testing.T) {
	candles := fromHighs(1, 2, 3, 2, 1, 2, 3, 2, 1)
	highs, lows := SwingPoints(candles, 2)

	if len(highs) != 2 || highs[0] != 2 || highs[1] != 6 {
		t.Errorf("highs = %v, ожидалось [2 6]", highs)
	}
	if len(lows) != 1 || lows[0] != 4 {
		t.Errorf("lows = %v, ожидалось [4]", lows)
	}
}

func TestSwingPointsEqualHighs(t *testing.T) {
	// Равный более ранний максимум дисквалифицирует, равный более поздний нет
	highs, _ := SwingPoints(fromHighs(1, 3, 3, 1, 1), 1)
	if len(highs) != 1 || highs[0] != 1 {
		t.Errorf("highs = %v, ожидалось [1]", highs)
	}
}

func TestSwingPointsShortInput(t *testing.T) {
	highs, lows := SwingPoints(fromHighs(1, 2, 1), 2)
	if highs != nil || lows != nil {
		t.Error("для короткой серии экстремумы не ищутся")
	}
}

func TestSupportResistanceMergesAndSorts(t *testing.T) {
	d := NewDetector(testConfig())
	levels := d.SupportResistance(valleys(90, 95, 100, 100.2))

	want := []float64{90, 95, 100.2}
	if len(levels.Supports) != len(want) {
		t.Fatalf("Supports = %v, ожидалось %v", levels.Supports, want)
	}
	for i := range want {
		if levels.Supports[i] != want[i] {
			t.Errorf("Supports[%d] = %v, ожидалось %v", i, levels.Supports[i], want[i])
		}
	}
}

func TestSupportResistanceMaxLevels(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLevels = 2
	levels := NewDetector(cfg).SupportResistance(valleys(80, 90, 100, 110))

	if len(levels.Supports) != 2 || levels.Supports[0] != 100 || levels.Supports[1] != 110 {
		t.Errorf("Supports = %v, ожидалось [100 110]", levels.Supports)
	}
}

func TestDetectPatternsSingleCandle(t *testing.T) {
	d := NewDetector(testConfig())

	tests := []struct {
		name   string
		candle *models.Candle
		want   string
		bias   models.Direction
	}{
		{"doji", ohlc(100, 101, 99, 100.1), Doji, models.Neutral},
		{"hammer", ohlc(100, 101.2, 98, 101), Hammer, models.Long},
		{"shooting star", ohlc(101, 103, 99.8, 100), ShootingStar, models.Short},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			patterns := d.DetectPatterns([]*models.Candle{tt.candle})
			if len(patterns) != 1 {
				t.Fatalf("patterns = %+v", patterns)
			}
			if patterns[0].Name != tt.want || patterns[0].Bias != tt.bias || patterns[0].Index != 0 {
				t.Errorf("pattern = %+v, ожидалось %s/%s", patterns[0], tt.want, tt.bias)
			}
		})
	}
}

func TestDetectPatternsEngulfing(t *testing.T) {
	d := NewDetector(testConfig())

	bullish := d.DetectPatterns([]*models.Candle{
		ohlc(101, 101.2, 99.8, 100),
		ohlc(99.9, 101.6, 99.8, 101.5),
	})
	if len(bullish) != 1 || bullish[0].Name != BullishEngulfing || bullish[0].Index != 1 {
		t.Errorf("bullish = %+v", bullish)
	}

	bearish := d.DetectPatterns([]*models.Candle{
		ohlc(100, 101.2, 99.8, 101),
		ohlc(101.1, 101.2, 99.4, 99.5),
	})
	if len(bearish) != 1 || bearish[0].Name != BearishEngulfing {
		t.Errorf("bearish = %+v", bearish)
	}
}

func TestDetectPatternsDoubleTop(t *testing.T) {
	d := NewDetector(testConfig())
	patterns := d.DetectPatterns(fromHighs(1, 2, 3, 2, 1, 2, 3, 2, 1))

	var found bool
	for _, p := range patterns {
		if p.Name == DoubleTop {
			found = true
			if p.Bias != models.Short || p.Index != 6 {
				t.Errorf("double_top = %+v", p)
			}
		}
	}
	if !found {
		t.Errorf("двойная вершина не найдена: %+v", patterns)
	}
}

func TestBias(t *testing.T) {
	patterns := []models.Pattern{
		{Name: Hammer, Bias: models.Long},
		{Name: DoubleBottom, Bias: models.Long},
		{Name: Doji, Bias: models.Neutral},
		{Name: DoubleTop, Bias: models.Short},
	}
	if got := Bias(patterns); got != 1 {
		t.Errorf("Bias = %d, ожидалось 1", got)
	}
	if Bias(nil) != 0 {
		t.Error("пустой список должен давать 0")
	}
}
