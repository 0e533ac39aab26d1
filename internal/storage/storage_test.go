package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func candle(symbol, interval string, i int, price float64) *models.Candle {
	open := base.Add(time.Duration(i) * time.Hour)
	return &models.Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  open,
		Open:      price,
		High:      price + 1,
		Low:       price - 1,
		Close:     price + 0.5,
		Volume:    10,
		CloseTime: open.Add(time.Hour - time.Millisecond),
	}
}

func TestMemoryCandlesAscending(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	// вставка не по порядку и повтор свечи
	batch := []*models.Candle{
		candle("BTCUSDT", "1h", 2, 102),
		candle("BTCUSDT", "1h", 0, 100),
		candle("BTCUSDT", "1h", 1, 101),
		candle("ETHUSDT", "1h", 0, 10),
	}
	if err := s.SaveCandles(ctx, batch); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCandles(ctx, []*models.Candle{candle("BTCUSDT", "1h", 1, 111)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCandles(ctx, "BTCUSDT", "1h", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("получено %d свечей", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].OpenTime.After(got[i-1].OpenTime) {
			t.Errorf("свечи не по возрастанию: %v, %v", got[i-1].OpenTime, got[i].OpenTime)
		}
	}
	if got[1].Open != 111 {
		t.Errorf("повторная свеча не заменена: %v", got[1].Open)
	}

	last, _ := s.GetCandles(ctx, "BTCUSDT", "1h", 2)
	if len(last) != 2 || last[1].Open != 102 {
		t.Errorf("limit должен оставлять последние свечи: %+v", last)
	}
}

func TestMemoryCandlesCapped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorageWithLimits(5, 2)

	for poll := 0; poll < 4; poll++ {
		batch := make([]*models.Candle, 0, 4)
		for i := poll * 3; i < poll*3+4; i++ {
			batch = append(batch, candle("BTCUSDT", "1h", i, float64(100+i)))
		}
		if err := s.SaveCandles(ctx, batch); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.GetCandles(ctx, "BTCUSDT", "1h", 0)
	if len(got) != 5 {
		t.Fatalf("хранится %d свечей, предел 5", len(got))
	}
	// последний опрос закончился свечой 12, остаются 8..12
	if got[0].Open != 108 || got[4].Open != 112 {
		t.Errorf("остались не последние свечи: %v .. %v", got[0].Open, got[4].Open)
	}

	for i := 0; i < 3; i++ {
		set := models.NewTimeframeSet("BTCUSDT", 100)
		set.Signals[models.TF1h] = &models.Signal{Timeframe: models.TF1h, Confidence: float64(40 + i)}
		if err := s.SaveSignalSet(ctx, set, "pass"); err != nil {
			t.Fatal(err)
		}
	}
	history, _ := s.GetSignalHistory(ctx, "BTCUSDT", models.TF1h, 0)
	if len(history) != 2 || history[0].Confidence != 42 || history[1].Confidence != 41 {
		t.Errorf("history = %+v", history)
	}
}

func TestMemorySignalHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	for i := 0; i < 3; i++ {
		set := models.NewTimeframeSet("BTCUSDT", 100)
		set.Signals[models.TF1h] = &models.Signal{Timeframe: models.TF1h, Confidence: float64(50 + i)}
		if err := s.SaveSignalSet(ctx, set, "pass"); err != nil {
			t.Fatal(err)
		}
	}

	history, err := s.GetSignalHistory(ctx, "BTCUSDT", models.TF1h, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].Confidence != 52 || history[1].Confidence != 51 {
		t.Errorf("history = %+v", history)
	}
	if none, _ := s.GetSignalHistory(ctx, "BTCUSDT", models.TF1d, 5); len(none) != 0 {
		t.Errorf("история 1d должна быть пустой: %+v", none)
	}
}

func TestNewMemory(t *testing.T) {
	s, err := New(config.StorageConfig{Type: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("ожидалось MemoryStorage, получено %T", s)
	}
	capped, err := New(config.StorageConfig{Type: "memory", MaxCandles: 300, MaxSignals: 20})
	if err != nil {
		t.Fatal(err)
	}
	if m := capped.(*MemoryStorage); m.maxCandles != 300 || m.maxSignals != 20 {
		t.Errorf("пределы не переданы: %d, %d", m.maxCandles, m.maxSignals)
	}
	if _, err := New(config.StorageConfig{Type: "sqlite"}); err == nil {
		t.Error("ожидалась ошибка для неизвестного типа")
	}
}

func TestCandlesQuery(t *testing.T) {
	q := candlesQuery("mtfa", "BTCUSDT", "4h", 200, 30)

	for _, want := range []string{
		`from(bucket: "mtfa")`,
		`range(start: -30d)`,
		`r._measurement == "candles"`,
		`r.symbol == "BTCUSDT"`,
		`r.interval == "4h"`,
		`limit(n: 200)`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("запрос не содержит %q:\n%s", want, q)
		}
	}
	// после выборки последних свечей порядок разворачивается по возрастанию
	if strings.LastIndex(q, `sort(columns: ["_time"])`) < strings.Index(q, "limit(") {
		t.Errorf("сортировка по возрастанию должна идти после limit:\n%s", q)
	}
}

func TestQueryEscapesStrings(t *testing.T) {
	q := signalHistoryQuery("mtfa", `BTC") |> drop(`, models.TF1d, 5, 7)
	if !strings.Contains(q, `r.symbol == "BTC\") |> drop("`) {
		t.Errorf("строка не экранирована:\n%s", q)
	}
	if !strings.Contains(q, `r.timeframe == "1d"`) || !strings.Contains(q, "range(start: -7d)") {
		t.Errorf("запрос:\n%s", q)
	}
}

func TestCandlePoint(t *testing.T) {
	line := write.PointToLineProtocol(candlePoint(candle("BTCUSDT", "1h", 0, 100)), time.Millisecond)

	if !strings.HasPrefix(line, "candles,interval=1h,symbol=BTCUSDT ") {
		t.Errorf("line = %q", line)
	}
	for _, want := range []string{"open=100", "close=100.5", "volume=10"} {
		if !strings.Contains(line, want) {
			t.Errorf("line не содержит %q: %q", want, line)
		}
	}
}

func TestSignalPoints(t *testing.T) {
	set := models.NewTimeframeSet("BTCUSDT", 100)
	set.Signals[models.TF1d] = &models.Signal{Timeframe: models.TF1d, Direction: models.Long, Confidence: 80, Timestamp: base}
	set.Signals[models.TF1h] = &models.Signal{
		Timeframe:  models.TF1h,
		Direction:  models.Short,
		Confidence: 55,
		Indicators: models.IndicatorSnapshot{VolumeDelta: -12.5},
		Timestamp:  base,
	}

	points := signalPoints(set, "abc")
	if len(points) != 2 {
		t.Fatalf("points = %d", len(points))
	}

	first := write.PointToLineProtocol(points[0], time.Millisecond)
	if !strings.HasPrefix(first, "signals,pass_id=abc,symbol=BTCUSDT,timeframe=1h ") {
		t.Errorf("first = %q", first)
	}
	if !strings.Contains(first, `direction="SHORT"`) || !strings.Contains(first, "confidence=55") ||
		!strings.Contains(first, "volume_delta=-12.5") {
		t.Errorf("first = %q", first)
	}
	if signalPoints(nil, "x") != nil {
		t.Error("nil набор должен давать nil")
	}
}
