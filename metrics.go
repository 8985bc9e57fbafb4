package goToken

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricPairsIssued counts successfully issued token pairs.
	MetricPairsIssued MetricID = iota
	// MetricIssueFailure counts failed issuance attempts.
	MetricIssueFailure
	// MetricValidateValid counts validations that returned StatusValid.
	MetricValidateValid
	// MetricValidateMalformed counts StatusMalformed rejections.
	MetricValidateMalformed
	// MetricValidateSignatureInvalid counts StatusSignatureInvalid rejections.
	MetricValidateSignatureInvalid
	// MetricValidateInvalidKeyID counts StatusInvalidKeyID rejections.
	MetricValidateInvalidKeyID
	// MetricValidateExpired counts StatusExpired rejections.
	MetricValidateExpired
	// MetricValidateRevoked counts StatusRevoked rejections.
	MetricValidateRevoked
	// MetricValidateInactive counts StatusInactive rejections.
	MetricValidateInactive
	// MetricValidateStoreUnavailable counts fail-closed store rejections.
	MetricValidateStoreUnavailable
	// MetricRiskEscalation counts forced revocations by risk scoring.
	MetricRiskEscalation
	// MetricRiskWarning counts validations with sub-threshold factors.
	MetricRiskWarning
	// MetricRefreshSuccess counts completed refresh rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts.
	MetricRefreshFailure
	// MetricRevocations counts explicit and forced revocations performed.
	MetricRevocations
	// MetricRevokeAllSweeps counts RevokeAllForUser invocations.
	MetricRevokeAllSweeps
	// MetricBatchValidations counts tokens validated through ValidateMany.
	MetricBatchValidations
	// MetricKeyRotations counts key ring rotations.
	MetricKeyRotations

	metricCount
)

// Metrics is a fixed-size atomic counter registry. Inc is wait-free and
// safe from any goroutine.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
