package harmonizer

import (
	"reflect"
	"testing"

	"github.com/skalibog/mtfa/internal/analysis/risk"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

func newHarmonizer() *Harmonizer {
	cfg := config.Default().Analysis
	return New(cfg.Harmonizer, risk.NewCalculator(cfg.Risk))
}

func signal(tf models.Timeframe, d models.Direction, confidence float64) *models.Signal {
	return &models.Signal{
		Symbol:     "BTCUSDT",
		Timeframe:  tf,
		Direction:  d,
		Confidence: confidence,
		EntryPrice: 100,
	}
}

func setOf(signals ...*models.Signal) *models.TimeframeSet {
	set := models.NewTimeframeSet("BTCUSDT", 100)
	for _, s := range signals {
		set.Signals[s.Timeframe] = s
	}
	return set
}

func TestHarmonizeAdjacentBlend(t *testing.T) {
	in := setOf(
		signal(models.TF1d, models.Long, 90),
		signal(models.TF4h, models.Short, 50),
	)

	out, overrides := newHarmonizer().Harmonize(in)

	lower := out.Signals[models.TF4h]
	if lower.Confidence != 52 {
		t.Errorf("4h confidence = %v, ожидалось 52", lower.Confidence)
	}
	if lower.Direction != models.Short {
		t.Errorf("4h direction = %s, порог смены направления не достигнут", lower.Direction)
	}
	if len(overrides) != 0 {
		t.Errorf("overrides = %+v", overrides)
	}
	if out.Signals[models.TF1d].Confidence != 90 || out.Signals[models.TF1d].Direction != models.Long {
		t.Errorf("старший таймфрейм изменен: %+v", out.Signals[models.TF1d])
	}
}

func TestHarmonizeKeyedByMapTimeframe(t *testing.T) {
	daily := signal(models.TF1d, models.Long, 90)
	daily.Timeframe = ""
	h4 := signal(models.TF1m, models.Short, 50)

	in := models.NewTimeframeSet("BTCUSDT", 100)
	in.Signals[models.TF1d] = daily
	in.Signals[models.TF4h] = h4

	out, _ := newHarmonizer().Harmonize(in)

	if got := out.Signals[models.TF4h].Confidence; got != 52 {
		t.Errorf("4h confidence = %v, ожидалось 52 как для соседних таймфреймов", got)
	}
	for tf, sig := range out.Signals {
		if sig.Timeframe != tf {
			t.Errorf("сигнал под ключом %s помечен как %q", tf, sig.Timeframe)
		}
	}
	if daily.Timeframe != "" || h4.Timeframe != models.TF1m {
		t.Error("входные сигналы изменены")
	}
}

func TestHarmonizeDoesNotMutateInput(t *testing.T) {
	in := setOf(
		signal(models.TF1d, models.Long, 90),
		signal(models.TF4h, models.Short, 50),
	)
	before := *in.Signals[models.TF4h]

	out, _ := newHarmonizer().Harmonize(in)

	if !reflect.DeepEqual(*in.Signals[models.TF4h], before) {
		t.Error("входной сигнал изменен")
	}
	if out.Signals[models.TF4h] == in.Signals[models.TF4h] {
		t.Error("результат должен содержать новые сигналы")
	}
}

func TestHarmonizeDirectionPropagationAcrossGap(t *testing.T) {
	in := setOf(
		signal(models.TF1M, models.Long, 90),
		signal(models.TF1h, models.Short, 40),
	)

	out, overrides := newHarmonizer().Harmonize(in)

	// расстояние 5 позиций: f = 0.25, 0.25*0.9 >= 0.2
	lower := out.Signals[models.TF1h]
	if lower.Confidence != 53 {
		t.Errorf("1h confidence = %v, ожидалось 53", lower.Confidence)
	}
	if lower.Direction != models.Long {
		t.Fatalf("1h direction = %s, ожидалось LONG", lower.Direction)
	}
	if lower.StopLoss != 99 || lower.TakeProfit != 102 || lower.RiskReward != 2 {
		t.Errorf("уровни не пересчитаны: %+v", lower)
	}
	if len(overrides) != 1 || overrides[0].From != models.Short || overrides[0].Higher != models.TF1M {
		t.Errorf("overrides = %+v", overrides)
	}
}

func TestHarmonizeUsesRunningConfidence(t *testing.T) {
	in := setOf(
		signal(models.TF1w, models.Long, 100),
		signal(models.TF4h, models.Long, 72),
		signal(models.TF1h, models.Long, 50),
	)

	out, _ := newHarmonizer().Harmonize(in)

	// 4h: 0.85*72 + 0.15*100 = 76.2, теперь выше порога и влияет на 1h
	if got := out.Signals[models.TF4h].Confidence; got != 76 {
		t.Errorf("4h confidence = %v, ожидалось 76", got)
	}
	// 1h: 0.8*50 + 0.2*100 = 60, затем 0.95*60 + 0.05*76 = 60.8
	if got := out.Signals[models.TF1h].Confidence; got != 61 {
		t.Errorf("1h confidence = %v, ожидалось 61", got)
	}
	if got := out.Signals[models.TF1w].Confidence; got != 100 {
		t.Errorf("1w confidence = %v", got)
	}
}

func TestHarmonizeNeutralHigherKeepsDirection(t *testing.T) {
	in := setOf(
		signal(models.TF1M, models.Neutral, 95),
		signal(models.TF1m, models.Short, 41),
	)

	out, overrides := newHarmonizer().Harmonize(in)
	if out.Signals[models.TF1m].Direction != models.Short || len(overrides) != 0 {
		t.Errorf("NEUTRAL не должен передавать направление: %+v", out.Signals[models.TF1m])
	}
	// f = 0.3: 0.7*41 + 0.3*95 = 57.2
	if got := out.Signals[models.TF1m].Confidence; got != 57 {
		t.Errorf("1m confidence = %v, ожидалось 57", got)
	}
}

func TestHarmonizeBelowThreshold(t *testing.T) {
	in := setOf(
		signal(models.TF1d, models.Long, 75),
		signal(models.TF1h, models.Short, 40),
	)

	out, _ := newHarmonizer().Harmonize(in)
	if got := out.Signals[models.TF1h]; got.Confidence != 40 || got.Direction != models.Short {
		t.Errorf("1h = %+v, влияние не должно применяться", got)
	}
}

func TestHarmonizeNilAndEmpty(t *testing.T) {
	h := newHarmonizer()
	if out, _ := h.Harmonize(nil); out != nil {
		t.Error("nil вход должен давать nil")
	}
	out, _ := h.Harmonize(models.NewTimeframeSet("BTCUSDT", 1))
	if out == nil || len(out.Signals) != 0 {
		t.Errorf("out = %+v", out)
	}
}
