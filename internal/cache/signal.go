// Package cache содержит ограниченный кэш рассчитанных сигналов.
package cache

import (
	"container/list"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
	"github.com/skalibog/mtfa/pkg/models"
)

// Key идентифицирует входные данные расчета сигнала
type Key struct {
	Symbol     string
	Timeframe  models.Timeframe
	Price      string // цена, округленная до PriceDecimals
	Bars       int
	LastOpenAt int64  // время открытия последней свечи, unix ms
	Digest     uint64 // xxhash времени и OHLCV всех свечей серии
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%d:%d:%x", k.Symbol, k.Timeframe, k.Price, k.Bars, k.LastOpenAt, k.Digest)
}

// NewKey строит ключ для серии свечей и текущей цены.
// Незакрытая свеча, перезаписанная с тем же временем открытия, меняет Digest.
func NewKey(symbol string, tf models.Timeframe, price float64, decimals int32, candles []*models.Candle) Key {
	key := Key{
		Symbol:    symbol,
		Timeframe: tf,
		Price:     decimal.NewFromFloat(price).Round(decimals).String(),
		Bars:      len(candles),
		Digest:    Digest(candles),
	}
	if len(candles) > 0 {
		key.LastOpenAt = candles[len(candles)-1].OpenTime.UnixMilli()
	}
	return key
}

// Digest хэш содержимого серии свечей
func Digest(candles []*models.Candle) uint64 {
	h := xxhash.New()
	var buf [48]byte
	for _, c := range candles {
		binary.LittleEndian.PutUint64(buf[0:], uint64(c.OpenTime.UnixNano()))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(c.Open))
		binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(c.High))
		binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(c.Low))
		binary.LittleEndian.PutUint64(buf[32:], math.Float64bits(c.Close))
		binary.LittleEndian.PutUint64(buf[40:], math.Float64bits(c.Volume))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

type entry struct {
	key    Key
	signal *models.Signal
}

// SignalCache LRU-кэш сигналов, безопасен для конкурентного использования.
// Хранит не более maxEntries записей, при переполнении вытесняется самая давняя по обращению.
// Сохраненный сигнал неизменяем: цена внутри ключа округлена, поэтому вызывающий
// пересчитывает по нему зависящие от цены поля, а не отдает его как есть.
type SignalCache struct {
	mutex      sync.Mutex
	items      map[Key]*list.Element
	order      *list.List // от свежих к старым
	maxEntries int
}

// NewSignalCache создает кэш на maxEntries записей
func NewSignalCache(maxEntries int) *SignalCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &SignalCache{
		items:      make(map[Key]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// Get возвращает ранее сохраненный сигнал
func (c *SignalCache) Get(key Key) (*models.Signal, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).signal, true
}

// Put сохраняет сигнал и вытесняет лишние записи
func (c *SignalCache) Put(key Key, sig *models.Signal) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).signal = sig
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry{key: key, signal: sig})

	for c.order.Len() > c.maxEntries {
		c.evictLRU()
	}
}

// Len количество записей
func (c *SignalCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.order.Len()
}

// Purge очищает кэш
func (c *SignalCache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[Key]*list.Element)
	c.order.Init()
}

func (c *SignalCache) evictLRU() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
