package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/skalibog/mtfa/internal/metrics"
	"github.com/skalibog/mtfa/internal/storage"
	"github.com/skalibog/mtfa/pkg/logger"
	"github.com/skalibog/mtfa/pkg/models"
	"go.uber.org/zap"
)

// DataCollector фоновый сборщик рыночных данных
type DataCollector interface {
	Start(ctx context.Context) error
	Stop()
}

// KlineSource источник свечей
type KlineSource interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error)
}

// CandleCollector периодически загружает свечи всех таймфреймов и сохраняет их
type CandleCollector struct {
	source     KlineSource
	store      storage.Storage
	symbols    []string
	timeframes []models.Timeframe
	limit      int
	interval   time.Duration
	recorder   *metrics.Recorder

	stopOnce sync.Once
	stop     chan struct{}
}

// NewCandleCollector создает сборщик свечей
func NewCandleCollector(source KlineSource, store storage.Storage, symbols []string, timeframes []models.Timeframe,
	limit int, interval time.Duration, recorder *metrics.Recorder) *CandleCollector {
	return &CandleCollector{
		source:     source,
		store:      store,
		symbols:    symbols,
		timeframes: timeframes,
		limit:      limit,
		interval:   interval,
		recorder:   recorder,
		stop:       make(chan struct{}),
	}
}

// Start блокирует до отмены контекста или вызова Stop
func (c *CandleCollector) Start(ctx context.Context) error {
	c.CollectOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CollectOnce(ctx)
		case <-c.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop останавливает сборщик
func (c *CandleCollector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// CollectOnce загружает свечи по всем символам и таймфреймам.
// Ошибка одной пары логируется и не прерывает остальные.
func (c *CandleCollector) CollectOnce(ctx context.Context) {
	for _, symbol := range c.symbols {
		for _, tf := range c.timeframes {
			if ctx.Err() != nil {
				return
			}

			candles, err := c.source.GetKlines(ctx, symbol, tf.String(), c.limit)
			if err != nil {
				logger.Warn("Ошибка загрузки свечей",
					zap.String("symbol", symbol),
					zap.String("timeframe", tf.String()),
					zap.Error(err))
				continue
			}

			if err := c.store.SaveCandles(ctx, candles); err != nil {
				logger.Warn("Ошибка сохранения свечей",
					zap.String("symbol", symbol),
					zap.String("timeframe", tf.String()),
					zap.Error(err))
				continue
			}

			c.recorder.CandlesStored(symbol, tf.String(), len(candles))
			logger.Debug("Свечи сохранены",
				zap.String("symbol", symbol),
				zap.String("timeframe", tf.String()),
				zap.Int("count", len(candles)))
		}
	}
}
