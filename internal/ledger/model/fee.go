package model

// FeeStatistics is the distribution of recently charged ledger fees, in stroops.
type FeeStatistics struct {
	Min  int64 `json:"min"`
	Max  int64 `json:"max"`
	Mode int64 `json:"mode"`
	P10  int64 `json:"p10"`
	P50  int64 `json:"p50"`
	P90  int64 `json:"p90"`
	P95  int64 `json:"p95"`
	P99  int64 `json:"p99"`
}

// Valid reports whether the percentiles are non-decreasing.
func (s FeeStatistics) Valid() bool {
	return s.P10 <= s.P50 && s.P50 <= s.P90 && s.P90 <= s.P95 && s.P95 <= s.P99
}

// FloorFeeStatistics returns statistics with every field set to fee.
func FloorFeeStatistics(fee int64) FeeStatistics {
	return FeeStatistics{Min: fee, Max: fee, Mode: fee, P10: fee, P50: fee, P90: fee, P95: fee, P99: fee}
}

// CongestionLevel classifies ledger throughput scarcity.
type CongestionLevel string

const (
	CongestionLow      CongestionLevel = "low"
	CongestionMedium   CongestionLevel = "medium"
	CongestionHigh     CongestionLevel = "high"
	CongestionCritical CongestionLevel = "critical"
)

// Priority selects how aggressively a transaction is priced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)
