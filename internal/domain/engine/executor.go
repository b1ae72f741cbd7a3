package engine

// Predicate is a compiled expression leaf. Implementations must be safe for
// concurrent use and must not modify facts.
type Predicate interface {
	Eval(facts map[string]any) (bool, error)
}

// ExpressionCompiler compiles the sources of one rule language.
type ExpressionCompiler interface {
	Language() string
	Compile(source any) (Predicate, error)
}
