package service

import "github.com/shopspring/decimal"

var cent = decimal.New(1, -2)

// Allocate splits amount across tickets that still owe owed[i]; both are in
// whole cents. Each round gives every ticket with room an equal share floored
// to the cent, capped at its room; cents that do not divide evenly go one at
// a time to the first tickets still owing. Whatever exceeds the combined room
// is split evenly, remainder on the first ticket. The shares always sum to
// amount.
func Allocate(amount decimal.Decimal, owed []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(owed))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if len(owed) == 0 || !amount.IsPositive() {
		return shares
	}

	room := func(i int) decimal.Decimal {
		return owed[i].Sub(shares[i])
	}

	remaining := amount
	for remaining.IsPositive() {
		var open []int
		for i := range owed {
			if room(i).IsPositive() {
				open = append(open, i)
			}
		}
		if len(open) == 0 {
			break
		}

		per := remaining.Div(decimal.NewFromInt(int64(len(open)))).Truncate(2)
		if per.IsZero() {
			for _, i := range open {
				if !remaining.IsPositive() {
					break
				}
				give := decimal.Min(cent, room(i), remaining)
				shares[i] = shares[i].Add(give)
				remaining = remaining.Sub(give)
			}
			continue
		}
		for _, i := range open {
			give := decimal.Min(per, room(i))
			shares[i] = shares[i].Add(give)
			remaining = remaining.Sub(give)
		}
	}

	if remaining.IsPositive() {
		n := decimal.NewFromInt(int64(len(owed)))
		per := remaining.Div(n).Truncate(2)
		for i := range shares {
			shares[i] = shares[i].Add(per)
		}
		shares[0] = shares[0].Add(remaining.Sub(per.Mul(n)))
	}
	return shares
}
