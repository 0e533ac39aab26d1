package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/skalibog/mtfa/pkg/models"
)

// Пределы хранения по умолчанию на одну серию
const (
	DefaultMaxCandles = 1500
	DefaultMaxSignals = 1000
)

// MemoryStorage хранилище в памяти процесса, используется без InfluxDB и в тестах.
// Каждая серия свечей и сигналов ограничена, старые записи отбрасываются.
type MemoryStorage struct {
	mutex      sync.RWMutex
	candles    map[string][]*models.Candle // symbol/interval -> по возрастанию времени
	signals    map[string][]*models.Signal // symbol/timeframe -> в порядке записи
	maxCandles int
	maxSignals int
}

// NewMemoryStorage создает пустое хранилище с пределами по умолчанию
func NewMemoryStorage() *MemoryStorage {
	return NewMemoryStorageWithLimits(DefaultMaxCandles, DefaultMaxSignals)
}

// NewMemoryStorageWithLimits создает хранилище, хранящее не более maxCandles свечей
// и maxSignals сигналов на серию
func NewMemoryStorageWithLimits(maxCandles, maxSignals int) *MemoryStorage {
	if maxCandles <= 0 {
		maxCandles = DefaultMaxCandles
	}
	if maxSignals <= 0 {
		maxSignals = DefaultMaxSignals
	}
	return &MemoryStorage{
		candles:    make(map[string][]*models.Candle),
		signals:    make(map[string][]*models.Signal),
		maxCandles: maxCandles,
		maxSignals: maxSignals,
	}
}

func seriesKey(symbol, interval string) string {
	return symbol + "/" + interval
}

// SaveCandles сохраняет свечи, свеча с тем же временем открытия заменяется
func (m *MemoryStorage) SaveCandles(_ context.Context, candles []*models.Candle) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// индекс времени открытия строится один раз на серию
	index := make(map[string]map[int64]int)
	for _, c := range candles {
		key := seriesKey(c.Symbol, c.Interval)
		series := m.candles[key]

		positions, ok := index[key]
		if !ok {
			positions = make(map[int64]int, len(series))
			for i, existing := range series {
				positions[existing.OpenTime.UnixNano()] = i
			}
			index[key] = positions
		}

		at := c.OpenTime.UnixNano()
		if i, ok := positions[at]; ok {
			series[i] = c
		} else {
			positions[at] = len(series)
			series = append(series, c)
		}
		m.candles[key] = series
	}

	for key := range index {
		series := m.candles[key]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].OpenTime.Before(series[j].OpenTime)
		})
		if len(series) > m.maxCandles {
			series = append([]*models.Candle(nil), series[len(series)-m.maxCandles:]...)
		}
		m.candles[key] = series
	}
	return nil
}

// GetCandles возвращает последние limit свечей по возрастанию времени
func (m *MemoryStorage) GetCandles(_ context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	series := m.candles[seriesKey(symbol, interval)]
	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}

	result := make([]*models.Candle, len(series))
	copy(result, series)
	return result, nil
}

// SaveSignalSet сохраняет копии сигналов набора
func (m *MemoryStorage) SaveSignalSet(_ context.Context, set *models.TimeframeSet, _ string) error {
	if set == nil {
		return nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, sig := range set.Ordered() {
		cp := *sig
		key := seriesKey(set.Symbol, sig.Timeframe.String())
		history := append(m.signals[key], &cp)
		if len(history) > m.maxSignals {
			history = append([]*models.Signal(nil), history[len(history)-m.maxSignals:]...)
		}
		m.signals[key] = history
	}
	return nil
}

// GetSignalHistory возвращает последние limit сигналов, от новых к старым
func (m *MemoryStorage) GetSignalHistory(_ context.Context, symbol string, tf models.Timeframe, limit int) ([]*models.Signal, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	history := m.signals[seriesKey(symbol, tf.String())]
	result := make([]*models.Signal, 0, len(history))
	for i := len(history) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		result = append(result, history[i])
	}
	return result, nil
}

// Close ничего не делает
func (m *MemoryStorage) Close() {}
