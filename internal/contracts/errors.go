package contracts

import "errors"

// ⭐ SSOT: 에러 분류는 여기서만 정의
var (
	// ErrNotFound 요청한 펀드 ID에 해당하는 시계열 없음
	ErrNotFound = errors.New("fund not found")

	// ErrInvalidInput 계산 전에 거부되는 잘못된 파라미터
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSeries 중복/역순 날짜 (데이터 품질 오류)
	ErrInvalidSeries = errors.New("invalid return series")

	// ErrNoData 업로드된 데이터셋이 없음
	ErrNoData = errors.New("no data loaded")
)

// FailureKind classifies a per-fund failure inside a batch
type FailureKind string

const (
	FailureNotFound      FailureKind = "not_found"
	FailureInvalidSeries FailureKind = "invalid_series"
	FailureNoData        FailureKind = "no_data"
	FailureInternal      FailureKind = "internal"
)

// FundFailure is one isolated failure in a multi-fund request
type FundFailure struct {
	FundID  int64       `json:"fund_id"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// KindOf maps an error to its failure kind
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return FailureNotFound
	case errors.Is(err, ErrInvalidSeries):
		return FailureInvalidSeries
	case errors.Is(err, ErrNoData):
		return FailureNoData
	default:
		return FailureInternal
	}
}
