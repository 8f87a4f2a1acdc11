// Package util provides common utility functions for price calculations.
package util

import "math"

// RoundToTick rounds x to the nearest tick increment.
// For example, with tick=0.01, 1.2345 becomes 1.23 or 1.24 depending on rounding.
func RoundToTick(x, tick float64) float64 {
	if tick == 0 {
		return x
	}
	tick = math.Abs(tick)
	return math.Round(x/tick) * tick
}

// FloorToTick rounds x down to the nearest tick increment. Used for
// credit limit prices so the order never asks for more than the quote
// supports.
func FloorToTick(x, tick float64) float64 {
	if tick == 0 {
		return x
	}
	tick = math.Abs(tick)
	return math.Floor(x/tick) * tick
}

// CeilToTick rounds x up to the nearest tick increment.
func CeilToTick(x, tick float64) float64 {
	if tick == 0 {
		return x
	}
	tick = math.Abs(tick)
	return math.Ceil(x/tick) * tick
}
