// Package core has the transformation pipeline, quantile codec and the
// forecast-vs-actual anomaly detection engine.
package core
