package indicator

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"trading-assistant/internal/domain"
)

func TestComputeRSITextbookSeries(t *testing.T) {
	prices := []float64{44, 44.25, 44.5, 43.75, 44.5, 45, 45.25, 46, 47.5, 48, 47, 48.5, 48, 47.75}

	result, err := ComputeRSI(prices, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// gains 6.25, losses 2.5 over 13 deltas: RS 2.5
	if result.Value != 71.43 {
		t.Fatalf("expected 71.43, got %v", result.Value)
	}
	if result.Classification != domain.RSIOverbought {
		t.Fatalf("expected overbought, got %s", result.Classification)
	}
}

func TestComputeRSIEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
		class  domain.RSIClassification
	}{
		{name: "rising", prices: []float64{1, 2, 3, 4, 5}, period: 4, want: 100, class: domain.RSIOverbought},
		{name: "rising with flat steps", prices: []float64{10, 10, 11, 11, 12}, period: 4, want: 100, class: domain.RSIOverbought},
		{name: "falling", prices: []float64{5, 4, 3, 2, 1}, period: 4, want: 0, class: domain.RSIOversold},
		{name: "falling with flat steps", prices: []float64{5, 5, 4, 4, 3}, period: 4, want: 0, class: domain.RSIOversold},
		{name: "flat series reports overbought", prices: []float64{7, 7, 7, 7}, period: 3, want: 100, class: domain.RSIOverbought},
		{name: "balanced", prices: []float64{10, 11, 10, 11, 10}, period: 4, want: 50, class: domain.RSINeutral},
		// extra closes still feed the sums but the divisor stays at period
		{name: "extra samples", prices: []float64{1, 2, 3, 2}, period: 2, want: 66.67, class: domain.RSINeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ComputeRSI(tt.prices, tt.period)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Value != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, result.Value)
			}
			if result.Classification != tt.class {
				t.Fatalf("expected %s, got %s", tt.class, result.Classification)
			}
		})
	}
}

func TestComputeRSIInsufficientData(t *testing.T) {
	_, err := ComputeRSI([]float64{1, 2, 3}, 3)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	_, err = ComputeRSI(nil, 14)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for nil series, got %v", err)
	}
}

func TestComputeRSIInvalidPeriod(t *testing.T) {
	if _, err := ComputeRSI([]float64{1, 2}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestComputeRSIDoesNotMutateInput(t *testing.T) {
	prices := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	snapshot := append([]float64(nil), prices...)

	first, err := ComputeRSI(prices, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := ComputeRSI(prices, 7)

	if !reflect.DeepEqual(prices, snapshot) {
		t.Fatalf("input mutated: %v", prices)
	}
	if first != second {
		t.Fatalf("expected deterministic output, got %+v and %+v", first, second)
	}
}

func TestComputeRSIBoundedForRandomSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		period := 1 + rng.Intn(30)
		prices := make([]float64, period+1+rng.Intn(5))
		price := 100.0
		for j := range prices {
			price += rng.NormFloat64() * 2
			prices[j] = price
		}

		result, err := ComputeRSI(prices, period)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Value < 0 || result.Value > 100 {
			t.Fatalf("rsi out of range: %v for %v", result.Value, prices)
		}
		if result.Classification != Classify(result.Value) {
			t.Fatalf("classification mismatch for %v", result.Value)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		value float64
		want  domain.RSIClassification
	}{
		{100, domain.RSIOverbought},
		{70, domain.RSIOverbought},
		{69.99, domain.RSINeutral},
		{50, domain.RSINeutral},
		{30.01, domain.RSINeutral},
		{30, domain.RSIOversold},
		{0, domain.RSIOversold},
	}
	for _, tt := range tests {
		if got := Classify(tt.value); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestFormatRSI(t *testing.T) {
	tests := []struct {
		result domain.RSIResult
		want   string
	}{
		{domain.RSIResult{Value: 72.5, Classification: domain.RSIOverbought}, "The 14-day RSI for BTC is 72.5 (overbought)."},
		{domain.RSIResult{Value: 100, Classification: domain.RSIOverbought}, "The 14-day RSI for BTC is 100.0 (overbought)."},
		{domain.RSIResult{Value: 0, Classification: domain.RSIOversold}, "The 14-day RSI for BTC is 0.0 (oversold)."},
	}
	for _, tt := range tests {
		if got := FormatRSI(14, "BTC", tt.result); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
