package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/pkg/models"
)

// BinanceClient клиент для взаимодействия с Binance Futures
type BinanceClient struct {
	futures *futures.Client
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) *BinanceClient {
	// Адрес тестовой сети выбирается при создании клиента
	futures.UseTestnet = cfg.Testnet

	return &BinanceClient{
		futures: futures.NewClient(cfg.APIKey, cfg.APISecret),
	}
}

// GetKlines получает исторические свечи по возрастанию времени
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	klines, err := c.futures.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей %s %s: %w", symbol, interval, err)
	}

	candles := make([]*models.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := convertKline(symbol, interval, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// GetPrice получает текущую цену символа
func (c *BinanceClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.futures.NewListPricesService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения цены %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("не найдена цена для %s", symbol)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("ошибка разбора цены %q: %w", prices[0].Price, err)
	}
	return price, nil
}

// convertKline переводит свечу Binance (цены строками) в модель
func convertKline(symbol, interval string, k *futures.Kline) (*models.Candle, error) {
	var values [5]float64
	for i, raw := range [5]string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора свечи %s %s: %w", symbol, interval, err)
		}
		values[i] = v
	}

	candle := &models.Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		CloseTime: time.UnixMilli(k.CloseTime).UTC(),
	}

	if !candle.Valid() {
		return nil, fmt.Errorf("несогласованная свеча %s %s в %s", symbol, interval, candle.OpenTime)
	}
	return candle, nil
}
