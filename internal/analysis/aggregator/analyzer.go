package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skalibog/mtfa/internal/analysis/harmonizer"
	"github.com/skalibog/mtfa/internal/analysis/risk"
	"github.com/skalibog/mtfa/internal/analysis/scorer"
	"github.com/skalibog/mtfa/internal/analysis/technical"
	"github.com/skalibog/mtfa/internal/cache"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/internal/metrics"
	"github.com/skalibog/mtfa/internal/storage"
	"github.com/skalibog/mtfa/pkg/logger"
	"github.com/skalibog/mtfa/pkg/models"
)

// ErrNoCandles нет ни одной свечи ни по одному таймфрейму символа
var ErrNoCandles = errors.New("нет свечей для анализа")

// PriceSource источник текущей цены
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// Analyzer объединяет все аналитические компоненты в проход по таймфреймам
type Analyzer struct {
	config        config.AnalysisConfig
	storage       storage.Storage
	prices        PriceSource
	technicalAnal *technical.Analyzer
	scorer        *scorer.Scorer
	risk          *risk.Calculator
	harmonizer    *harmonizer.Harmonizer
	cache         *cache.SignalCache
	priceDecimals int32
	recorder      *metrics.Recorder
	symbols       []string
	timeframes    []models.Timeframe
	candleLimit   int
}

// NewAnalyzer создает анализатор. sigCache и recorder могут быть nil.
func NewAnalyzer(cfg *config.Config, store storage.Storage, sigCache *cache.SignalCache, recorder *metrics.Recorder) *Analyzer {
	calc := risk.NewCalculator(cfg.Analysis.Risk)

	return &Analyzer{
		config:        cfg.Analysis,
		storage:       store,
		technicalAnal: technical.NewAnalyzer(cfg.Analysis),
		scorer:        scorer.New(cfg.Analysis.Scoring),
		risk:          calc,
		harmonizer:    harmonizer.New(cfg.Analysis.Harmonizer, calc),
		cache:         sigCache,
		priceDecimals: cfg.Cache.PriceDecimals,
		recorder:      recorder,
		symbols:       cfg.Trading.Symbols,
		timeframes:    cfg.Trading.ParsedTimeframes(),
		candleLimit:   cfg.Trading.CandleLimit,
	}
}

// WithPriceSource задает источник текущей цены.
// Без него ценой считается последнее закрытие младшего таймфрейма.
func (a *Analyzer) WithPriceSource(src PriceSource) *Analyzer {
	a.prices = src
	return a
}

// Compute рассчитывает сигналы по всем таймфреймам серии и согласует их.
// price <= 0 означает последнее закрытие каждой серии.
// Ошибка возвращается только при отмене контекста.
func (a *Analyzer) Compute(ctx context.Context, symbol string, series map[models.Timeframe][]*models.Candle, price float64) (*models.TimeframeSet, error) {
	start := time.Now()

	slots := make([]*models.Signal, len(models.Hierarchy))

	g, gctx := errgroup.WithContext(ctx)
	if a.config.Workers > 0 {
		g.SetLimit(a.config.Workers)
	}

	for i, tf := range models.Hierarchy {
		i, tf := i, tf
		candles := series[tf]
		if len(candles) == 0 {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = a.signalFor(symbol, tf, candles, price)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := models.NewTimeframeSet(symbol, price)
	for _, sig := range slots {
		if sig == nil {
			continue
		}
		raw.Signals[sig.Timeframe] = sig
		if raw.Price <= 0 {
			raw.Price = sig.EntryPrice
		}
	}

	set, overrides := a.harmonizer.Harmonize(raw)
	for _, o := range overrides {
		a.recorder.RecordOverride(symbol, o.Higher, o.Lower)
		logger.Debug("Направление младшего таймфрейма изменено",
			zap.String("symbol", symbol),
			zap.String("higher", o.Higher.String()),
			zap.String("lower", o.Lower.String()),
			zap.String("from", string(o.From)),
			zap.String("to", string(o.To)))
	}

	a.recorder.RecordSignals(set)
	a.recorder.ObservePass(symbol, time.Since(start))

	return set, nil
}

// signalFor сигнал одного таймфрейма до согласования.
// Из кэша берутся только не зависящие от цены индикаторы, остальное
// пересчитывается по фактической цене, поэтому попадание неотличимо от расчета.
func (a *Analyzer) signalFor(symbol string, tf models.Timeframe, candles []*models.Candle, price float64) *models.Signal {
	entry := price
	if entry <= 0 {
		entry = candles[len(candles)-1].Close
	}

	if a.cache == nil {
		return a.buildSignal(symbol, tf, candles, a.technicalAnal.Analyze(candles, entry))
	}

	key := cache.NewKey(symbol, tf, entry, a.priceDecimals, candles)
	if cached, ok := a.cache.Get(key); ok {
		a.recorder.CacheLookup(true)
		return a.buildSignal(symbol, tf, candles, a.technicalAnal.Reprice(cached.Indicators, entry))
	}
	a.recorder.CacheLookup(false)

	sig := a.buildSignal(symbol, tf, candles, a.technicalAnal.Analyze(candles, entry))
	a.cache.Put(key, sig)
	return sig
}

// buildSignal оценивает снимок и рассчитывает уровни выхода от snap.Price
func (a *Analyzer) buildSignal(symbol string, tf models.Timeframe, candles []*models.Candle, snap models.IndicatorSnapshot) *models.Signal {
	result := a.scorer.Score(snap)

	sig := &models.Signal{
		Symbol:     symbol,
		Timeframe:  tf,
		Direction:  result.Direction,
		Confidence: result.Confidence,
		EntryPrice: snap.Price,
		Indicators: snap,
		Timestamp:  candles[len(candles)-1].CloseTime,
	}
	a.risk.Apply(sig)
	return sig
}

// GenerateSignals генерирует наборы сигналов для всех отслеживаемых символов
func (a *Analyzer) GenerateSignals(ctx context.Context) (map[string]*models.TimeframeSet, error) {
	results := make(map[string]*models.TimeframeSet)
	var wg sync.WaitGroup
	var mutex sync.Mutex

	for _, symbol := range a.symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			set, err := a.generateForSymbol(ctx, sym)
			if err != nil {
				// Логируем ошибку, но продолжаем для других символов
				a.recorder.SymbolFailed(sym)
				logger.Warn("Ошибка генерации сигналов", zap.String("symbol", sym), zap.Error(err))
				return
			}

			mutex.Lock()
			results[sym] = set
			mutex.Unlock()
		}(symbol)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// generateForSymbol читает серии из хранилища, считает набор и сохраняет его
func (a *Analyzer) generateForSymbol(ctx context.Context, symbol string) (*models.TimeframeSet, error) {
	series := make(map[models.Timeframe][]*models.Candle, len(a.timeframes))
	for _, tf := range a.timeframes {
		candles, err := a.storage.GetCandles(ctx, symbol, tf.String(), a.candleLimit)
		if err != nil {
			logger.Warn("Предупреждение: свечи таймфрейма недоступны",
				zap.String("symbol", symbol),
				zap.String("timeframe", tf.String()),
				zap.Error(err))
			continue
		}
		if len(candles) > 0 {
			series[tf] = candles
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoCandles)
	}

	price := a.currentPrice(ctx, symbol)

	set, err := a.Compute(ctx, symbol, series, price)
	if err != nil {
		return nil, err
	}

	passID := uuid.NewString()
	if err := a.storage.SaveSignalSet(ctx, set, passID); err != nil {
		logger.Warn("Предупреждение: не удалось сохранить сигналы",
			zap.String("symbol", symbol),
			zap.String("pass_id", passID),
			zap.Error(err))
	}

	return set, nil
}

// currentPrice цена из источника или 0, если источник не задан или недоступен
func (a *Analyzer) currentPrice(ctx context.Context, symbol string) float64 {
	if a.prices == nil {
		return 0
	}
	price, err := a.prices.GetPrice(ctx, symbol)
	if err != nil {
		logger.Warn("Предупреждение: текущая цена недоступна, используется закрытие свечи",
			zap.String("symbol", symbol), zap.Error(err))
		return 0
	}
	return price
}

// GetSignalHistory возвращает историю сигналов таймфрейма для символа
func (a *Analyzer) GetSignalHistory(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]*models.Signal, error) {
	return a.storage.GetSignalHistory(ctx, symbol, tf, limit)
}
