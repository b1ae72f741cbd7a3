// Package diff compares rule packs rule by rule.
package diff

import (
	"encoding/json"
	"sort"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

// RuleChange is an RFC 7386 merge patch turning the old definition of a rule
// into the new one.
type RuleChange struct {
	ID    string          `json:"id"`
	Patch json.RawMessage `json:"patch"`
}

// Delta lists the rule ids that differ between two packs, each list sorted.
type Delta struct {
	Added   []string     `json:"added,omitempty"`
	Removed []string     `json:"removed,omitempty"`
	Changed []RuleChange `json:"changed,omitempty"`
}

func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

type Differ struct{}

// Diff compares before and after. A nil pack is treated as empty.
func (d *Differ) Diff(before, after *domain.RulePack) (Delta, error) {
	old := index(before)
	cur := index(after)

	var delta Delta
	for id, def := range cur {
		prev, ok := old[id]
		if !ok {
			delta.Added = append(delta.Added, id)
			continue
		}
		a, err := json.Marshal(prev)
		if err != nil {
			return Delta{}, err
		}
		b, err := json.Marshal(def)
		if err != nil {
			return Delta{}, err
		}
		if jsonpatch.Equal(a, b) {
			continue
		}
		patch, err := jsonpatch.CreateMergePatch(a, b)
		if err != nil {
			return Delta{}, err
		}
		delta.Changed = append(delta.Changed, RuleChange{ID: id, Patch: patch})
	}
	for id := range old {
		if _, ok := cur[id]; !ok {
			delta.Removed = append(delta.Removed, id)
		}
	}

	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	sort.Slice(delta.Changed, func(i, j int) bool { return delta.Changed[i].ID < delta.Changed[j].ID })
	return delta, nil
}

func index(pack *domain.RulePack) map[string]domain.RuleDefinition {
	out := map[string]domain.RuleDefinition{}
	if pack == nil {
		return out
	}
	for _, def := range pack.Rules {
		out[def.ID] = def
	}
	return out
}
