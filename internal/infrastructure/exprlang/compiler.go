// Package exprlang compiles expr-lang expressions into engine predicates.
package exprlang

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
)

var ErrNotBoolean = errors.New("expr: expression did not return a boolean")

// env mirrors the shape of model.Facts so that unknown identifiers are caught
// at compile time.
var env = map[string]any{
	"cart": map[string]any{},
}

type Compiler struct{}

func NewCompiler() *Compiler { return &Compiler{} }

func (c *Compiler) Language() string { return domain.LanguageExpr }

func (c *Compiler) Compile(source any) (engine.Predicate, error) {
	src, ok := source.(string)
	if !ok || strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("expression must be a non-empty string, got %T", source)
	}
	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, err
	}
	return &predicate{program: program}, nil
}

type predicate struct {
	program *vm.Program
}

func (p *predicate) Eval(facts map[string]any) (bool, error) {
	out, err := expr.Run(p.program, facts)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w (%T)", ErrNotBoolean, out)
	}
	return b, nil
}
