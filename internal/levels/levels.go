// Package levels holds the protective-level arithmetic shared by the
// order executor and the position reconciler. Both must produce identical
// numbers: the reconciler repairs exactly what the executor would have set.
package levels

import (
	"captrader/internal/helper"
	"captrader/internal/models"
)

// TakeProfit computes the take-profit for a fill at price: a fixed
// fractional offset in the profitable direction, widened to minDistance
// when the broker's minimum gap is larger than the offset.
func TakeProfit(side models.Side, price, offset, minDistance float64) float64 {
	var tp float64
	if side == models.SideBuy {
		tp = helper.Round2(price * (1 + offset))
	} else {
		tp = helper.Round2(price * (1 - offset))
	}
	if distance(tp, price) < minDistance {
		if side == models.SideBuy {
			tp = helper.Round2(price + minDistance)
		} else {
			tp = helper.Round2(price - minDistance)
		}
	}
	return tp
}

// StopLoss mirrors TakeProfit on the losing side of the entry.
func StopLoss(side models.Side, price, offset, minDistance float64) float64 {
	var sl float64
	if side == models.SideBuy {
		sl = helper.Round2(price * (1 - offset))
	} else {
		sl = helper.Round2(price * (1 + offset))
	}
	if distance(sl, price) < minDistance {
		if side == models.SideBuy {
			sl = helper.Round2(price - minDistance)
		} else {
			sl = helper.Round2(price + minDistance)
		}
	}
	return sl
}

// Protective computes both levels for an entry.
func Protective(side models.Side, price, offset, minDistance float64) models.ProtectiveLevels {
	tp := TakeProfit(side, price, offset, minDistance)
	sl := StopLoss(side, price, offset, minDistance)
	return models.ProtectiveLevels{TakeProfit: &tp, StopLoss: &sl}
}

func distance(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
