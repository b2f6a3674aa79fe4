// Package card defines the runtime side of cardwire: the Card capability,
// the ordered card Registry and the table generated registrars add
// themselves to.
//
// A feature package makes a type discoverable by placing the marker
// directive in the type's doc comment:
//
//	//cardwire:register
//	type WeatherCard struct{}
//
//	func (WeatherCard) CardName() string { return "Weather" }
//
// Running `cardwire generate` over the package emits a registrar that
// constructs one WeatherCard and passes it to Registry.Register.
package card

// Directive is the default marker directive placed in a type's doc comment.
const Directive = "cardwire:register"

// Card is the capability every registrable component implements.
type Card interface {
	// CardName returns a human-readable name for display.
	CardName() string
}
