package contracts

import (
	"context"
	"time"
)

// Fund holds the static attributes of one fund from the uploaded sheet
type Fund struct {
	ID             int64             `json:"fund_id"`
	Name           string            `json:"fund_name"`
	ISIN           string            `json:"isin,omitempty"`
	Firm           string            `json:"firm_name,omitempty"`
	Category       string            `json:"category,omitempty"`
	Sector         string            `json:"sector,omitempty"`
	ManagementFee  *float64          `json:"management_fee"`
	PerformanceFee *float64          `json:"performance_fee"`
	Rating         *float64          `json:"rating"`
	InvestmentArea string            `json:"investment_area,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// FundSource is the read-only data access the metrics facade depends on
// ⭐ SSOT: 엔진은 싱글톤 저장소 대신 이 인터페이스만 사용
type FundSource interface {
	// Fund returns ErrNotFound for unknown ids
	Fund(ctx context.Context, id int64) (*Fund, error)

	// Series returns the full ordered series for a fund
	Series(ctx context.Context, id int64) (ReturnSeries, error)
}

// DatasetSummary describes the currently loaded dataset
type DatasetSummary struct {
	DatasetID         string     `json:"dataset_id"`
	Source            string     `json:"source"`
	TotalFunds        int        `json:"total_funds"`
	TotalObservations int        `json:"total_observations"`
	FirstDate         *Date      `json:"first_date"`
	LastDate          *Date      `json:"last_date"`
	LoadedAt          *time.Time `json:"loaded_at"`
	Revision          uint64     `json:"revision"`
}
