package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/skalibog/mtfa/internal/analysis/aggregator"
	"github.com/skalibog/mtfa/internal/cache"
	"github.com/skalibog/mtfa/internal/config"
	"github.com/skalibog/mtfa/internal/exchange"
	"github.com/skalibog/mtfa/internal/metrics"
	"github.com/skalibog/mtfa/internal/storage"
	"github.com/skalibog/mtfa/pkg/logger"
	"github.com/skalibog/mtfa/pkg/models"
)

func main() {
	// Обработка флагов командной строки
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	// Проверяем наличие файла конфигурации
	logger.Info("Проверка наличия файла конфигурации", zap.String("path", *configPath))
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Fatal("Файл конфигурации не найден", zap.String("path", *configPath))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	if err := logger.Init(logger.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		JSONFile: cfg.Log.JSONFile,
	}); err != nil {
		logger.Fatal("Ошибка инициализации логгера", zap.Error(err))
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Завершение работы", zap.String("signal", sig.String()))
		cancel()
	}()

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, prometheus.DefaultGatherer)
		metricsServer.Start()
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
	}
	defer store.Close()

	client := exchange.NewBinanceClient(cfg.Binance)

	var sigCache *cache.SignalCache
	if cfg.Cache.Enabled {
		sigCache = cache.NewSignalCache(cfg.Cache.MaxEntries)
	}

	analyzer := aggregator.NewAnalyzer(cfg, store, sigCache, recorder).WithPriceSource(client)

	interval := time.Duration(cfg.Analysis.IntervalSeconds) * time.Second

	dataCollectors := []exchange.DataCollector{
		exchange.NewCandleCollector(client, store, cfg.Trading.Symbols, cfg.Trading.ParsedTimeframes(),
			cfg.Trading.CandleLimit, interval, recorder),
	}

	var wg sync.WaitGroup
	for _, collector := range dataCollectors {
		collector := collector
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer collector.Stop()
			if err := collector.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Предупреждение: сборщик данных остановлен с ошибкой", zap.Error(err))
			}
		}()
	}

	logger.Info("Анализатор запущен",
		zap.Strings("symbols", cfg.Trading.Symbols),
		zap.Strings("timeframes", cfg.Trading.Timeframes),
		zap.Duration("interval", interval),
		zap.String("storage", cfg.Storage.Type))

	runAnalysis(ctx, analyzer, interval)

	for _, collector := range dataCollectors {
		collector.Stop()
	}
	wg.Wait()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("Ошибка остановки сервера метрик", zap.Error(err))
		}
	}
}

// runAnalysis запускает проходы анализа по таймеру до отмены контекста
func runAnalysis(ctx context.Context, analyzer *aggregator.Analyzer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sets, err := analyzer.GenerateSignals(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("Предупреждение: ошибка при генерации сигналов", zap.Error(err))
				continue
			}
			for _, set := range sets {
				logSet(set)
			}
		case <-ctx.Done():
			return
		}
	}
}

// logSet выводит согласованный набор сигналов
func logSet(set *models.TimeframeSet) {
	for _, sig := range set.Ordered() {
		logger.Info("Сигнал",
			zap.String("symbol", set.Symbol),
			zap.String("timeframe", sig.Timeframe.String()),
			zap.String("direction", string(sig.Direction)),
			zap.Float64("confidence", sig.Confidence),
			zap.Float64("entry", sig.EntryPrice),
			zap.Float64("stop_loss", sig.StopLoss),
			zap.Float64("take_profit", sig.TakeProfit),
			zap.Float64("risk_reward", sig.RiskReward),
			zap.Float64("volume_delta", sig.Indicators.VolumeDelta),
			zap.Time("timestamp", sig.Timestamp))
	}
}
