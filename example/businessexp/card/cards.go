// Package card holds the cards of the experimental business line.
package card

//go:generate go run github.com/c360studio/cardwire/cmd/cardwire generate --out ../../generate --aggregate .

//cardwire:register
type ExpACard struct {
	Title string
}

func (ExpACard) CardName() string {
	return "ExpACard"
}

// ExpBCard is a counter card; its value is the number of views.
//
//cardwire:register
type ExpBCard int

func (ExpBCard) CardName() string {
	return "ExpBCard"
}

// draftCard is not exported and never registered.
type draftCard struct{}

func (draftCard) CardName() string {
	return "draft"
}
