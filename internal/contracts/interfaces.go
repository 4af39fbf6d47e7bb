package contracts

import (
	"context"
	"time"
)

// PriceProvider supplies daily closes for a symbol (market-data provider)
// ⭐ SSOT: 시세 공급자 인터페이스
type PriceProvider interface {
	DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]PricePoint, error)
}

// FundamentalsProvider supplies quarterly EPS and company metadata (filings provider)
// ⭐ SSOT: 재무/기업정보 공급자 인터페이스
type FundamentalsProvider interface {
	QuarterlyEPS(ctx context.Context, ticker string) (EarningsPair, error)
	CompanyProfile(ctx context.Context, ticker string) (*CompanyMetadata, error)
}

// FilingsProvider lists regulatory filings; display only
type FilingsProvider interface {
	LatestFilings(ctx context.Context, ticker, form string, limit int) ([]Filing, error)
}

// ResultCache is the screening result cache surface used by the orchestrator
// ⭐ SSOT: 결과 캐시 인터페이스
type ResultCache interface {
	Get(ctx context.Context, ticker string, maxAge time.Duration) (*ScreeningResult, error)
	Put(ctx context.Context, ticker string, result *ScreeningResult) error
}

// UniverseSource resolves a named ticker universe
type UniverseSource interface {
	Tickers(ctx context.Context) ([]string, error)
}
