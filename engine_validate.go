package goToken

import (
	"context"
	"sync"

	"github.com/MrEthical07/goToken/internal/flows"
)

// Validate verifies a presented token: signature and claims, blacklist and
// metadata state, then contextual risk against the observed IP and
// user-agent. A store failure is fail-closed and reported as
// StatusStoreUnavailable, never as an implicit allow.
func (e *Engine) Validate(ctx context.Context, token, observedIP, observedUserAgent string) ValidationResult {
	if e == nil {
		return ValidationResult{Status: StatusStoreUnavailable, Err: ErrEngineNotReady}
	}

	res := flows.RunValidate(ctx, token, observedIP, observedUserAgent, e.validateDeps())
	return e.mapValidateResult(res)
}

// ValidateMany validates tokens concurrently. Failures are isolated per
// index and results preserve input order regardless of completion order.
// Abandoning the batch context cannot leave a revocation half-applied:
// escalation writes are detached from cancellation.
func (e *Engine) ValidateMany(ctx context.Context, items []BatchItem) []ValidationResult {
	if e == nil || len(items) == 0 {
		return nil
	}

	results := make([]ValidationResult, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		go func(i int, item BatchItem) {
			defer wg.Done()
			results[i] = e.Validate(ctx, item.Token, item.IPAddress, item.UserAgent)
		}(i, item)
	}
	wg.Wait()

	for range items {
		e.metricInc(MetricBatchValidations)
	}
	return results
}

func (e *Engine) mapValidateResult(res flows.ValidateResult) ValidationResult {
	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateValid)
		if len(res.Warnings) > 0 {
			e.metricInc(MetricRiskWarning)
		}
		return ValidationResult{
			Status:   StatusValid,
			Claims:   res.Claims,
			Warnings: res.Warnings,
		}
	case flows.ValidateFailureMalformed:
		e.metricInc(MetricValidateMalformed)
		return ValidationResult{Status: StatusMalformed, Err: res.Err}
	case flows.ValidateFailureInvalidKeyID:
		e.metricInc(MetricValidateInvalidKeyID)
		return ValidationResult{Status: StatusInvalidKeyID, Err: res.Err}
	case flows.ValidateFailureSignature:
		e.metricInc(MetricValidateSignatureInvalid)
		return ValidationResult{Status: StatusSignatureInvalid, Err: res.Err}
	case flows.ValidateFailureExpired:
		e.metricInc(MetricValidateExpired)
		return ValidationResult{Status: StatusExpired, Err: res.Err}
	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateRevoked)
		return ValidationResult{Status: StatusRevoked}
	case flows.ValidateFailureInactive:
		e.metricInc(MetricValidateInactive)
		return ValidationResult{Status: StatusInactive}
	case flows.ValidateFailureHighRisk:
		e.metricInc(MetricRiskEscalation)
		return ValidationResult{
			Status:   StatusHighRisk,
			Claims:   res.Claims,
			Warnings: res.Warnings,
		}
	default:
		e.metricInc(MetricValidateStoreUnavailable)
		return ValidationResult{Status: StatusStoreUnavailable, Err: res.Err}
	}
}
