package domain

import (
	"errors"
	"time"
)

const (
	DefaultRSIPeriod      = 14
	DefaultCryptoCurrency = "usd"

	RSIOverboughtThreshold = 70.0
	RSIOversoldThreshold   = 30.0
)

var (
	ErrEmptyQuery       = errors.New("no asset provided")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("upstream rate limit reached")
)

type AssetKind string

const (
	AssetCrypto       AssetKind = "crypto"
	AssetCurrencyPair AssetKind = "currency_pair"
)

type CryptoAsset struct {
	ID    string `json:"id"`
	Quote string `json:"quote"`
}

type CurrencyPair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// AssetDescriptor is a tagged union: Kind selects which of Crypto or Pair is set.
type AssetDescriptor struct {
	Kind   AssetKind     `json:"kind"`
	Label  string        `json:"label"`
	Crypto *CryptoAsset  `json:"crypto,omitempty"`
	Pair   *CurrencyPair `json:"pair,omitempty"`
}

func NewCryptoDescriptor(label, id, quote string) AssetDescriptor {
	return AssetDescriptor{
		Kind:   AssetCrypto,
		Label:  label,
		Crypto: &CryptoAsset{ID: id, Quote: quote},
	}
}

func NewPairDescriptor(base, quote string) AssetDescriptor {
	return AssetDescriptor{
		Kind:  AssetCurrencyPair,
		Label: base + "/" + quote,
		Pair:  &CurrencyPair{Base: base, Quote: quote},
	}
}

// CacheKey identifies the instrument independent of how the user spelled it.
func (a AssetDescriptor) CacheKey() string {
	switch a.Kind {
	case AssetCrypto:
		if a.Crypto != nil {
			return "crypto:" + a.Crypto.ID + ":" + a.Crypto.Quote
		}
	case AssetCurrencyPair:
		if a.Pair != nil {
			return "fx:" + a.Pair.Base + ":" + a.Pair.Quote
		}
	}
	return ""
}

type RSIClassification string

const (
	RSIOverbought RSIClassification = "overbought"
	RSINeutral    RSIClassification = "neutral"
	RSIOversold   RSIClassification = "oversold"
)

type RSIResult struct {
	Value          float64           `json:"value"`
	Classification RSIClassification `json:"classification"`
}

type PriceQuote struct {
	CoinID   string    `json:"coin_id"`
	Symbol   string    `json:"symbol"`
	Currency string    `json:"currency"`
	Price    float64   `json:"price"`
	AsOf     time.Time `json:"as_of"`
}

type ExchangeRate struct {
	Base          string  `json:"base"`
	Quote         string  `json:"quote"`
	Rate          float64 `json:"rate"`
	RawRate       string  `json:"raw_rate"`
	LastRefreshed string  `json:"last_refreshed,omitempty"`
}

type NewsHeadline struct {
	Title     string `json:"title"`
	Source    string `json:"source,omitempty"`
	Published string `json:"published,omitempty"`
}

type ConversationMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}
