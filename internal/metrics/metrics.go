// Package metrics экспортирует метрики расчета сигналов в Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skalibog/mtfa/pkg/logger"
	"github.com/skalibog/mtfa/pkg/models"
	"go.uber.org/zap"
)

// Recorder метрики проходов анализа
type Recorder struct {
	PassesTotal     *prometheus.CounterVec // labels: symbol
	PassDuration    prometheus.Histogram
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Confidence      *prometheus.GaugeVec   // labels: symbol, timeframe
	Direction       *prometheus.GaugeVec   // labels: symbol, timeframe; 1=LONG, -1=SHORT, 0=NEUTRAL
	Overrides       *prometheus.CounterVec // labels: symbol, higher, lower
	SymbolFailures  *prometheus.CounterVec // labels: symbol
	CandlesIngested *prometheus.CounterVec // labels: symbol, timeframe
}

// NewRecorder создает и регистрирует метрики в reg.
// nil reg означает prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		PassesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfa_passes_total",
			Help: "Total analysis passes per symbol",
		}, []string{"symbol"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mtfa_pass_duration_seconds",
			Help:    "Duration of one multi-timeframe analysis pass",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mtfa_cache_hits_total",
			Help: "Signal cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mtfa_cache_misses_total",
			Help: "Signal cache misses",
		}),
		Confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mtfa_signal_confidence",
			Help: "Last harmonized signal confidence",
		}, []string{"symbol", "timeframe"}),
		Direction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mtfa_signal_direction",
			Help: "Last harmonized signal direction: 1 long, -1 short, 0 neutral",
		}, []string{"symbol", "timeframe"}),
		Overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfa_harmonizer_overrides_total",
			Help: "Direction overrides applied by the harmonizer",
		}, []string{"symbol", "higher", "lower"}),
		SymbolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfa_symbol_failures_total",
			Help: "Analysis passes that failed for a symbol",
		}, []string{"symbol"}),
		CandlesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfa_candles_ingested_total",
			Help: "Candles written by collectors",
		}, []string{"symbol", "timeframe"}),
	}

	reg.MustRegister(
		r.PassesTotal,
		r.PassDuration,
		r.CacheHits,
		r.CacheMisses,
		r.Confidence,
		r.Direction,
		r.Overrides,
		r.SymbolFailures,
		r.CandlesIngested,
	)
	return r
}

// ObservePass учитывает завершенный проход по символу.
// Все методы Recorder допускают nil-получатель.
func (r *Recorder) ObservePass(symbol string, d time.Duration) {
	if r == nil {
		return
	}
	r.PassesTotal.WithLabelValues(symbol).Inc()
	r.PassDuration.Observe(d.Seconds())
}

// CacheLookup учитывает попадание или промах кэша
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheHits.Inc()
	} else {
		r.CacheMisses.Inc()
	}
}

// RecordSignals обновляет последние значения уверенности и направления
func (r *Recorder) RecordSignals(set *models.TimeframeSet) {
	if r == nil || set == nil {
		return
	}
	for _, sig := range set.Ordered() {
		r.Confidence.WithLabelValues(set.Symbol, sig.Timeframe.String()).Set(sig.Confidence)
		r.Direction.WithLabelValues(set.Symbol, sig.Timeframe.String()).Set(directionValue(sig.Direction))
	}
}

// RecordOverride учитывает смену направления младшего таймфрейма
func (r *Recorder) RecordOverride(symbol string, higher, lower models.Timeframe) {
	if r == nil {
		return
	}
	r.Overrides.WithLabelValues(symbol, higher.String(), lower.String()).Inc()
}

// SymbolFailed учитывает ошибку анализа символа
func (r *Recorder) SymbolFailed(symbol string) {
	if r == nil {
		return
	}
	r.SymbolFailures.WithLabelValues(symbol).Inc()
}

// CandlesStored учитывает сохраненные коллектором свечи
func (r *Recorder) CandlesStored(symbol, timeframe string, n int) {
	if r == nil {
		return
	}
	r.CandlesIngested.WithLabelValues(symbol, timeframe).Add(float64(n))
}

func directionValue(d models.Direction) float64 {
	switch d {
	case models.Long:
		return 1
	case models.Short:
		return -1
	default:
		return 0
	}
}

// Server HTTP-сервер с эндпоинтом метрик
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer создает сервер метрик для gatherer
func NewServer(addr, path string, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler возвращает обработчик запросов сервера
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start запускает сервер в отдельной горутине
func (s *Server) Start() {
	go func() {
		logger.Info("Сервер метрик запущен", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка сервера метрик", zap.Error(err))
		}
	}()
}

// Stop корректно останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
