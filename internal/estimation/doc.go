// Package estimation forecasts the disk space compression would reclaim.
//
// Each pricing source is encapsulated in one specific Estimator, and per-game
// estimates are aggregated by the Engine into a library-wide Projection.
package estimation
