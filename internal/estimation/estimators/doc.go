// Package estimators provides concrete Estimator implementations for the
// estimation engine.
//
// Each estimator prices games from one source of truth (ratios observed on
// compressed games in the library itself, fixed per-algorithm baselines).
// Estimators are composed into a chain via estimation.Engine; the first
// source able to price a game wins.
package estimators
