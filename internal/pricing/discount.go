package pricing

import "github.com/DukeRupert/busroute/internal/domain"

// Bracket is one step of the volume discount schedule. It applies to fleets
// with strictly more than MinExclusive buses.
type Bracket struct {
	MinExclusive   int
	DiscountPerBus domain.Money
}

// brackets is ordered by descending threshold; the first match wins.
var brackets = []Bracket{
	{MinExclusive: 1000, DiscountPerBus: domain.Cents(500)},
	{MinExclusive: 750, DiscountPerBus: domain.Cents(400)},
	{MinExclusive: 500, DiscountPerBus: domain.Cents(350)},
	{MinExclusive: 250, DiscountPerBus: domain.Cents(300)},
	{MinExclusive: 100, DiscountPerBus: domain.Cents(250)},
}

// DiscountPerBus returns the per-bus discount for a fleet of busCount buses.
// Thresholds are exclusive: 100 buses get no discount, 101 get 2.50.
func DiscountPerBus(busCount int) domain.Money {
	for _, b := range brackets {
		if busCount > b.MinExclusive {
			return b.DiscountPerBus
		}
	}
	return 0
}

// Brackets returns the discount schedule in ascending order, starting with
// the implicit zero-discount bracket.
func Brackets() []Bracket {
	out := make([]Bracket, 0, len(brackets)+1)
	out = append(out, Bracket{MinExclusive: -1})
	for i := len(brackets) - 1; i >= 0; i-- {
		out = append(out, brackets[i])
	}
	return out
}
