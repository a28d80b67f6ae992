package provider

import (
	"context"
	"fmt"

	"trading-assistant/internal/domain"
)

type CryptoHistory interface {
	DailyCloses(ctx context.Context, coinID, currency string, days int) ([]float64, error)
}

type FXHistory interface {
	FXDailyCloses(ctx context.Context, base, quote string, count int) ([]float64, error)
}

// HistoryProvider routes close-price requests by asset kind.
type HistoryProvider struct {
	crypto CryptoHistory
	fx     FXHistory
}

func NewHistoryProvider(crypto CryptoHistory, fx FXHistory) *HistoryProvider {
	return &HistoryProvider{crypto: crypto, fx: fx}
}

// Closes returns up to count daily closes for asset, oldest first.
func (h *HistoryProvider) Closes(ctx context.Context, asset domain.AssetDescriptor, count int) ([]float64, error) {
	switch asset.Kind {
	case domain.AssetCrypto:
		if asset.Crypto == nil || h.crypto == nil {
			break
		}
		return h.crypto.DailyCloses(ctx, asset.Crypto.ID, asset.Crypto.Quote, count)
	case domain.AssetCurrencyPair:
		if asset.Pair == nil || h.fx == nil {
			break
		}
		return h.fx.FXDailyCloses(ctx, asset.Pair.Base, asset.Pair.Quote, count)
	}
	return nil, fmt.Errorf("no history source for %q asset %s", asset.Kind, asset.Label)
}
