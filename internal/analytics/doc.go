// Package analytics computes the derived series behind the dashboard:
// the joined daily view, rolling averages and trailing baselines, percent
// deltas, rush-hour multipliers, weekend factors, and hourly anomaly
// z-scores.
//
// Every function here is a pure function over an immutable snapshot of
// cleaned rows. Inputs are sorted internally, window functions reset per
// partition (mode for daily series, borough+hour for hourly series), and the
// only failure modes are division by zero and insufficient window data, both
// of which yield a nil metric rather than an error.
//
// Trailing windows follow "rows N preceding" semantics: near the start of a
// partition the window narrows to however many rows exist instead of being
// undefined. The 180-day baseline and the z-score window exclude the current
// row; the moving averages include it.
package analytics
