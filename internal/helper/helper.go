package helper

import "math"

// Round2 rounds to two decimals, the precision the broker accepts for
// price levels.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func RoundUpToTick(v, tick float64) float64 {
	if tick <= 0 {
		return v
	}
	return math.Ceil(v/tick) * tick
}

func RoundDownToTick(v, tick float64) float64 {
	if tick <= 0 {
		return v
	}
	return math.Floor(v/tick) * tick
}
