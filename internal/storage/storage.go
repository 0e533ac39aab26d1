package storage

import (
	"context"
	"fmt"

	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

// Storage интерфейс для работы с хранилищем данных
type Storage interface {
	// Методы для свечей, GetCandles возвращает последние limit свечей по возрастанию времени
	SaveCandles(ctx context.Context, candles []*models.Candle) error
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error)

	// Методы для сигналов, история возвращается от новых к старым
	SaveSignalSet(ctx context.Context, set *models.TimeframeSet, passID string) error
	GetSignalHistory(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]*models.Signal, error)

	Close()
}

// New создает хранилище указанного в конфигурации типа
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "influxdb":
		s, err := NewInfluxDBStorage(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory", "":
		return NewMemoryStorageWithLimits(cfg.MaxCandles, cfg.MaxSignals), nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", cfg.Type)
	}
}
