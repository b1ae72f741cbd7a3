package jsonlogic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
)

var ErrInvalidLogic = errors.New("jsonlogic: invalid logic")

// Compiler compiles JsonLogic documents into engine predicates.
type Compiler struct{}

func NewCompiler() *Compiler {
	registerOperators()
	return &Compiler{}
}

func (c *Compiler) Language() string { return domain.LanguageJSONLogic }

// Compile accepts a decoded JSON value, raw JSON bytes or a JSON string.
func (c *Compiler) Compile(source any) (engine.Predicate, error) {
	rule, err := ruleBytes(source)
	if err != nil {
		return nil, err
	}
	if !jsonlogic.IsValid(bytes.NewReader(rule)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLogic, rule)
	}
	return &predicate{rule: rule}, nil
}

type predicate struct {
	rule []byte
}

func (p *predicate) Eval(facts map[string]any) (bool, error) {
	data, err := json.Marshal(facts)
	if err != nil {
		return false, fmt.Errorf("encode facts: %w", err)
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(p.rule), bytes.NewReader(data), &out); err != nil {
		return false, err
	}
	if out.Len() == 0 {
		return false, nil
	}

	var res any
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		return false, fmt.Errorf("decode result: %w", err)
	}
	return truthy(res), nil
}

func ruleBytes(source any) ([]byte, error) {
	switch v := source.(type) {
	case nil:
		return nil, fmt.Errorf("%w: logic is empty", ErrInvalidLogic)
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case string:
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("%w: not a JSON document", ErrInvalidLogic)
		}
		return []byte(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLogic, err)
		}
		return b, nil
	}
}
