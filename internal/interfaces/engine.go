package interfaces

import (
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure/exprlang"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure/jsonlogic"
)

// NewDefaultEngine returns an engine that understands both rule languages.
func NewDefaultEngine() *engine.Engine {
	return engine.New(
		engine.WithExpressionCompiler(jsonlogic.NewCompiler()),
		engine.WithExpressionCompiler(exprlang.NewCompiler()),
	)
}
