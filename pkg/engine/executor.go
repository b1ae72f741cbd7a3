package engine

import "github.com/Victor-armando18/service-promotions/internal/interfaces"

// New returns an engine with the jsonlogic and expr rule languages enabled.
func New() *Engine {
	return interfaces.NewDefaultEngine()
}
