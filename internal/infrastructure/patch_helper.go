package infrastructure

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

var ErrInvalidPatch = errors.New("invalid patch")

// ApplyCartPatch applies an RFC 6902 patch to a cart and returns the updated
// copy. The original is never modified.
func ApplyCartPatch(original domain.Cart, patchData []byte) (domain.Cart, error) {
	modified, err := applyPatch(original, patchData)
	if err != nil {
		return original, err
	}
	var updated domain.Cart
	if err := json.Unmarshal(modified, &updated); err != nil {
		return original, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return updated, nil
}

// ApplyRulePackPatch applies an RFC 6902 patch to a rule pack. The result is
// checked against the rule pack schema like any pack read from disk.
func ApplyRulePackPatch(original *domain.RulePack, patchData []byte) (*domain.RulePack, error) {
	modified, err := applyPatch(original, patchData)
	if err != nil {
		return nil, err
	}
	pack, err := DecodeRulePackJSON(modified)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return pack, nil
}

func applyPatch(original any, patchData []byte) ([]byte, error) {
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.DecodePatch(patchData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode patch: %v", ErrInvalidPatch, err)
	}
	modified, err := patch.Apply(originalJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to apply patch: %v", ErrInvalidPatch, err)
	}
	return modified, nil
}
