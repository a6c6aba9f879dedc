// Package led drives a board status LED as a capture indicator.
package led

// Pattern is what the indicator shows.
type Pattern string

// Indicator patterns.
const (
	PatternOff   Pattern = "off"
	PatternSolid Pattern = "solid"
	PatternBlink Pattern = "blink"
)

// Controller sets one LED. Implementations handle board-specific naming.
type Controller interface {
	Set(p Pattern) error
	// Name identifies the LED in logs.
	Name() string
}
