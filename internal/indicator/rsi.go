package indicator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"trading-assistant/internal/domain"
)

var ErrInvalidPeriod = errors.New("period must be positive")

// ComputeRSI returns the simple-average RSI of prices.
//
// Every adjacent pair contributes to the gain/loss sums, but both averages are
// divided by period even when more than period+1 closes are supplied. A zero
// delta counts as a gain, so a flat series reports 100.
func ComputeRSI(prices []float64, period int) (domain.RSIResult, error) {
	if period <= 0 {
		return domain.RSIResult{}, ErrInvalidPeriod
	}
	if len(prices) < period+1 {
		return domain.RSIResult{}, fmt.Errorf("%w: need %d closes, got %d", domain.ErrInsufficientData, period+1, len(prices))
	}

	var gains, losses float64
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta >= 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	var rsi float64
	switch {
	case avgLoss == 0:
		rsi = 100
	case avgGain == 0:
		rsi = 0
	default:
		rs := avgGain / avgLoss
		rsi = 100 - 100/(1+rs)
	}

	value := round2(rsi)
	return domain.RSIResult{Value: value, Classification: Classify(value)}, nil
}

// Classify labels an RSI value; both thresholds are inclusive of the extreme label.
func Classify(value float64) domain.RSIClassification {
	switch {
	case value >= domain.RSIOverboughtThreshold:
		return domain.RSIOverbought
	case value <= domain.RSIOversoldThreshold:
		return domain.RSIOversold
	default:
		return domain.RSINeutral
	}
}

func FormatRSI(period int, label string, result domain.RSIResult) string {
	return fmt.Sprintf("The %d-day RSI for %s is %s (%s).", period, label, FormatValue(result.Value), result.Classification)
}

// FormatValue prints v in shortest form but always with a decimal point (100.0, 72.5).
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
