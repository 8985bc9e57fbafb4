// Package risk scores contextual anomalies between the environment a token
// was issued in and the environment it is presented from.
//
// The package deliberately only reports factors. Whether a given factor
// count warrants a warning or a forced revocation is engine policy and is
// configured on the engine, not here.
package risk
