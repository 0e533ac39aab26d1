package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/skalibog/mtfa/pkg/models"
)

func key(i int) Key {
	return Key{Symbol: "BTCUSDT", Timeframe: models.TF1h, Price: fmt.Sprint(i), Bars: 60}
}

func TestNewKeyRoundsPrice(t *testing.T) {
	open := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []*models.Candle{{OpenTime: open.Add(-time.Hour)}, {OpenTime: open}}

	a := NewKey("BTCUSDT", models.TF1h, 100.001, 2, candles)
	b := NewKey("BTCUSDT", models.TF1h, 99.999, 2, candles)
	if a != b {
		t.Errorf("ключи должны совпасть: %s / %s", a, b)
	}
	if a.Price != "100" || a.Bars != 2 || a.LastOpenAt != open.UnixMilli() {
		t.Errorf("key = %+v", a)
	}

	c := NewKey("BTCUSDT", models.TF1h, 100.01, 2, candles)
	if a == c {
		t.Error("разные цены должны давать разные ключи")
	}
	if d := NewKey("BTCUSDT", models.TF4h, 100.001, 2, candles); a == d {
		t.Error("разные таймфреймы должны давать разные ключи")
	}
}

func TestNewKeyCoversCandleContents(t *testing.T) {
	open := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := func(lastClose, lastVolume float64) []*models.Candle {
		return []*models.Candle{
			{OpenTime: open.Add(-time.Hour), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
			{OpenTime: open, Open: 100.5, High: 103, Low: 100, Close: lastClose, Volume: lastVolume},
		}
	}

	base := NewKey("BTCUSDT", models.TF1h, 100, 2, series(101, 10))
	if same := NewKey("BTCUSDT", models.TF1h, 100, 2, series(101, 10)); same != base {
		t.Errorf("одинаковые серии дали разные ключи: %s / %s", base, same)
	}

	// перечитанная незакрытая свеча: время открытия и число свечей те же
	for name, candles := range map[string][]*models.Candle{
		"close":  series(102, 10),
		"volume": series(101, 50),
	} {
		if k := NewKey("BTCUSDT", models.TF1h, 100, 2, candles); k == base {
			t.Errorf("%s: изменение последней свечи не изменило ключ", name)
		}
	}

	earlier := series(101, 10)
	earlier[0].High = 102
	if k := NewKey("BTCUSDT", models.TF1h, 100, 2, earlier); k == base {
		t.Error("изменение ранней свечи не изменило ключ")
	}
}

func TestGetPut(t *testing.T) {
	c := NewSignalCache(4)
	sig := &models.Signal{Symbol: "BTCUSDT", Confidence: 70}

	if _, ok := c.Get(key(1)); ok {
		t.Fatal("пустой кэш вернул запись")
	}
	c.Put(key(1), sig)
	got, ok := c.Get(key(1))
	if !ok || got != sig {
		t.Errorf("Get = %v, %v", got, ok)
	}

	replacement := &models.Signal{Symbol: "BTCUSDT", Confidence: 80}
	c.Put(key(1), replacement)
	if got, _ := c.Get(key(1)); got != replacement || c.Len() != 1 {
		t.Errorf("перезапись: %v, len %d", got, c.Len())
	}
}

func TestEvictionKeepsMostRecent(t *testing.T) {
	c := NewSignalCache(3)
	for i := 0; i < 5; i++ {
		c.Put(key(i), &models.Signal{Confidence: float64(i)})
	}

	if c.Len() != 3 {
		t.Fatalf("Len = %d, ожидалось 3", c.Len())
	}
	for i := 0; i < 2; i++ {
		if _, ok := c.Get(key(i)); ok {
			t.Errorf("запись %d должна быть вытеснена", i)
		}
	}
	for i := 2; i < 5; i++ {
		if _, ok := c.Get(key(i)); !ok {
			t.Errorf("запись %d должна остаться", i)
		}
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	c := NewSignalCache(2)
	c.Put(key(1), &models.Signal{})
	c.Put(key(2), &models.Signal{})
	c.Get(key(1))
	c.Put(key(3), &models.Signal{})

	if _, ok := c.Get(key(2)); ok {
		t.Error("запись 2 должна быть вытеснена")
	}
	if _, ok := c.Get(key(1)); !ok {
		t.Error("запись 1 недавно читалась и должна остаться")
	}
}

func TestPurge(t *testing.T) {
	c := NewSignalCache(2)
	c.Put(key(1), &models.Signal{})
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewSignalCache(16)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				k := key(w*100 + i%20)
				c.Put(k, &models.Signal{})
				c.Get(k)
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Errorf("Len = %d превышает лимит", c.Len())
	}
}
