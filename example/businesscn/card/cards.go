// Package card holds the cards of the CN business line.
package card

//go:generate go run github.com/c360studio/cardwire/cmd/cardwire generate --out ../../generate --aggregate .

// CNACard shows the CN account overview.
//
//cardwire:register
type CNACard struct{}

func (*CNACard) CardName() string {
	return "CNACard"
}

// CNBCard shows the CN billing summary.
//
//cardwire:register
type CNBCard struct {
	region string
}

// NewCNBCard creates a billing card for the CN region.
func NewCNBCard() *CNBCard {
	return &CNBCard{region: "cn"}
}

func (c *CNBCard) CardName() string {
	return "CNBCard"
}

// Region returns the region the card reports on.
func (c *CNBCard) Region() string {
	return c.region
}
