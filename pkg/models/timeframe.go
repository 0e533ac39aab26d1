package models

import (
	"fmt"
	"time"
)

// Timeframe метка таймфрейма
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF3d  Timeframe = "3d"
	TF1w  Timeframe = "1w"
	TF1M  Timeframe = "1M"
)

// Hierarchy фиксированный порядок таймфреймов от младшего к старшему
var Hierarchy = []Timeframe{TF1m, TF5m, TF15m, TF30m, TF1h, TF4h, TF1d, TF3d, TF1w, TF1M}

// Rank возвращает позицию в иерархии или -1 для неизвестной метки
func (tf Timeframe) Rank() int {
	for i, h := range Hierarchy {
		if h == tf {
			return i
		}
	}
	return -1
}

// Duration номинальная длительность свечи
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	case TF30m:
		return 30 * time.Minute
	case TF1h:
		return time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF1d:
		return 24 * time.Hour
	case TF3d:
		return 72 * time.Hour
	case TF1w:
		return 7 * 24 * time.Hour
	case TF1M:
		return 30 * 24 * time.Hour
	default:
		return time.Hour
	}
}

func (tf Timeframe) String() string { return string(tf) }

// ParseTimeframe проверяет метку таймфрейма
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if tf.Rank() < 0 {
		return "", fmt.Errorf("неизвестный таймфрейм: %q", s)
	}
	return tf, nil
}
