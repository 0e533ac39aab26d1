package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

const (
	candlesMeasurement = "candles"
	signalsMeasurement = "signals"
)

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client    influxdb2.Client
	queryAPI  api.QueryAPI
	writeAPI  api.WriteAPIBlocking
	bucket    string
	retention int
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:    client,
		queryAPI:  client.QueryAPI(cfg.Organization),
		writeAPI:  client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		bucket:    cfg.Bucket,
		retention: cfg.RetentionDays,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveCandles сохраняет множество свечей
func (s *InfluxDBStorage) SaveCandles(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	points := make([]*write.Point, len(candles))
	for i, c := range candles {
		points[i] = candlePoint(c)
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("ошибка записи свечей: %w", err)
	}
	return nil
}

// GetCandles получает исторические свечи
func (s *InfluxDBStorage) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	result, err := s.queryAPI.Query(ctx, candlesQuery(s.bucket, symbol, interval, limit, s.retention))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса свечей: %w", err)
	}
	defer result.Close()

	duration := models.Timeframe(interval).Duration()

	var candles []*models.Candle
	for result.Next() {
		record := result.Record()
		openTime := record.Time()

		candles = append(candles, &models.Candle{
			Symbol:    symbol,
			Interval:  interval,
			OpenTime:  openTime,
			Open:      floatValue(record.ValueByKey("open")),
			High:      floatValue(record.ValueByKey("high")),
			Low:       floatValue(record.ValueByKey("low")),
			Close:     floatValue(record.ValueByKey("close")),
			Volume:    floatValue(record.ValueByKey("volume")),
			CloseTime: openTime.Add(duration - time.Millisecond),
		})
	}

	// Проверяем на ошибки при обработке результатов
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return candles, nil
}

// SaveSignalSet сохраняет сигналы всех таймфреймов одного прохода
func (s *InfluxDBStorage) SaveSignalSet(ctx context.Context, set *models.TimeframeSet, passID string) error {
	points := signalPoints(set, passID)
	if len(points) == 0 {
		return nil
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("ошибка записи сигналов: %w", err)
	}
	return nil
}

// GetSignalHistory получает историю сигналов таймфрейма
func (s *InfluxDBStorage) GetSignalHistory(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]*models.Signal, error) {
	result, err := s.queryAPI.Query(ctx, signalHistoryQuery(s.bucket, symbol, tf, limit, s.retention))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории сигналов: %w", err)
	}
	defer result.Close()

	var signals []*models.Signal
	for result.Next() {
		record := result.Record()
		direction, _ := record.ValueByKey("direction").(string)

		signals = append(signals, &models.Signal{
			Symbol:     symbol,
			Timeframe:  tf,
			Direction:  models.Direction(direction),
			Confidence: floatValue(record.ValueByKey("confidence")),
			EntryPrice: floatValue(record.ValueByKey("entry")),
			StopLoss:   floatValue(record.ValueByKey("stop_loss")),
			TakeProfit: floatValue(record.ValueByKey("take_profit")),
			RiskReward: floatValue(record.ValueByKey("risk_reward")),
			Indicators: models.IndicatorSnapshot{
				Version:     models.SnapshotVersion,
				RSI:         floatValue(record.ValueByKey("rsi")),
				MACD:        models.MACDValue{Histogram: floatValue(record.ValueByKey("macd_histogram"))},
				ADX:         models.ADXValue{ADX: floatValue(record.ValueByKey("adx"))},
				ATR:         floatValue(record.ValueByKey("atr")),
				VolumeDelta: floatValue(record.ValueByKey("volume_delta")),
			},
			Timestamp: record.Time(),
		})
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return signals, nil
}

// candlePoint точка свечи, время точки = время открытия
func candlePoint(c *models.Candle) *write.Point {
	return influxdb2.NewPoint(
		candlesMeasurement,
		map[string]string{
			"symbol":   c.Symbol,
			"interval": c.Interval,
		},
		map[string]interface{}{
			"open":   c.Open,
			"high":   c.High,
			"low":    c.Low,
			"close":  c.Close,
			"volume": c.Volume,
		},
		c.OpenTime,
	)
}

// signalPoints по одной точке на таймфрейм, помеченной идентификатором прохода
func signalPoints(set *models.TimeframeSet, passID string) []*write.Point {
	if set == nil {
		return nil
	}

	ordered := set.Ordered()
	points := make([]*write.Point, 0, len(ordered))
	for _, sig := range ordered {
		points = append(points, influxdb2.NewPoint(
			signalsMeasurement,
			map[string]string{
				"symbol":    set.Symbol,
				"timeframe": sig.Timeframe.String(),
				"pass_id":   passID,
			},
			map[string]interface{}{
				"direction":      string(sig.Direction),
				"confidence":     sig.Confidence,
				"entry":          sig.EntryPrice,
				"stop_loss":      sig.StopLoss,
				"take_profit":    sig.TakeProfit,
				"risk_reward":    sig.RiskReward,
				"rsi":            sig.Indicators.RSI,
				"macd_histogram": sig.Indicators.MACD.Histogram,
				"adx":            sig.Indicators.ADX.ADX,
				"atr":            sig.Indicators.ATR,
				"volume_delta":   sig.Indicators.VolumeDelta,
			},
			sig.Timestamp,
		))
	}
	return points
}

// candlesQuery последние limit свечей, отсортированные по возрастанию времени
func candlesQuery(bucket, symbol, interval string, limit, retentionDays int) string {
	return fmt.Sprintf(`
		from(bucket: %s)
			|> range(start: -%dd)
			|> filter(fn: (r) => r._measurement == %s)
			|> filter(fn: (r) => r.symbol == %s)
			|> filter(fn: (r) => r.interval == %s)
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
			|> sort(columns: ["_time"])
	`, quote(bucket), retentionDays, quote(candlesMeasurement), quote(symbol), quote(interval), limit)
}

// signalHistoryQuery последние limit сигналов таймфрейма, от новых к старым
func signalHistoryQuery(bucket, symbol string, tf models.Timeframe, limit, retentionDays int) string {
	return fmt.Sprintf(`
		from(bucket: %s)
			|> range(start: -%dd)
			|> filter(fn: (r) => r._measurement == %s)
			|> filter(fn: (r) => r.symbol == %s)
			|> filter(fn: (r) => r.timeframe == %s)
			|> pivot(rowKey:["_time", "pass_id"], columnKey: ["_field"], valueColumn: "_value")
			|> group()
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, quote(bucket), retentionDays, quote(signalsMeasurement), quote(symbol), quote(tf.String()), limit)
}

// quote строковый литерал Flux
func quote(s string) string {
	return strconv.Quote(s)
}

func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}
