package contracts

import "math"

// Num wraps a computed value as a nullable metric
// ⭐ SSOT: "계산 불가"는 항상 nil (0이나 NaN으로 표현하지 않음)
func Num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Value dereferences a nullable metric, reporting availability
func Value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
