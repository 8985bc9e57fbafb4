package risk

// Factor identifies a single contextual anomaly observed during token
// validation.
type Factor string

const (
	// FactorIPChanged means the request IP differs from the IP the token
	// was issued to.
	FactorIPChanged Factor = "ip_changed"
	// FactorDeviceMismatch means the observed device fingerprint differs
	// from the fingerprint embedded in the token.
	FactorDeviceMismatch Factor = "device_mismatch"
)

// Context carries the issued-vs-observed values a scoring pass compares.
// Empty observed values are treated as no signal, not as a mismatch.
type Context struct {
	IssuedIP           string
	IssuedFingerprint  string
	ObservedIP         string
	ObservedFingerprint string
}

// Factors scores a validation context and returns every anomaly found.
// The function is pure: it never mutates state and never decides what to
// do about the anomalies. The revocation threshold is policy owned by the
// caller.
func Factors(rc Context) []Factor {
	var factors []Factor
	if rc.ObservedIP != "" && rc.IssuedIP != "" && rc.ObservedIP != rc.IssuedIP {
		factors = append(factors, FactorIPChanged)
	}
	if rc.ObservedFingerprint != "" && rc.IssuedFingerprint != "" && rc.ObservedFingerprint != rc.IssuedFingerprint {
		factors = append(factors, FactorDeviceMismatch)
	}
	return factors
}

// Strings converts factors to plain strings for alert payloads and logs.
func Strings(factors []Factor) []string {
	if len(factors) == 0 {
		return nil
	}
	out := make([]string, len(factors))
	for i, f := range factors {
		out[i] = string(f)
	}
	return out
}
