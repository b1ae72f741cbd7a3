package infrastructure

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure/yaml"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
)

// LatestVersion asks a loader for the newest rule pack it knows.
const LatestVersion = "latest"

const ruleFileSuffix = "_rules"

//go:embed schemas/rule-pack.json
var rulePackSchema []byte

var rulePackSchemaLoader = gojsonschema.NewBytesLoader(rulePackSchema)

// FileRuleLoader reads rule packs named <version>_rules.{json,yaml,yml} from
// BaseDir.
type FileRuleLoader struct {
	BaseDir string
}

func NewFileRuleLoader(baseDir string) interfaces.RulePackLoader {
	return &FileRuleLoader{BaseDir: baseDir}
}

func (l *FileRuleLoader) Load(ctx context.Context, version string) (*domain.RulePack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	version = NormalizeVersion(version)
	if version == LatestVersion {
		versions, err := l.Versions(ctx)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, fmt.Errorf("%w: no rule packs in %s", domain.ErrRulePackNotFound, l.BaseDir)
		}
		version = versions[len(versions)-1]
	}

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(l.BaseDir, version+ruleFileSuffix+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", path, err)
		}

		var pack *domain.RulePack
		if ext == ".json" {
			pack, err = DecodeRulePackJSON(data)
		} else {
			pack, err = DecodeRulePackYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("rule file %s: %w", path, err)
		}
		if pack.Version == "" {
			pack.Version = version
		}
		return pack, nil
	}
	return nil, fmt.Errorf("%w: version %s in %s", domain.ErrRulePackNotFound, version, l.BaseDir)
}

// Versions lists the rule pack versions in BaseDir, oldest first. Files whose
// version is not semver are ignored.
func (l *FileRuleLoader) Versions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule dir %s: %w", l.BaseDir, err)
	}

	seen := map[string]*semver.Version{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !strings.HasSuffix(name, ruleFileSuffix) {
			continue
		}
		raw := strings.TrimSuffix(name, ruleFileSuffix)
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		seen[raw] = v
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if cmp := seen[names[i]].Compare(seen[names[j]]); cmp != 0 {
			return cmp < 0
		}
		return names[i] < names[j]
	})
	return names, nil
}

// NormalizeVersion prefixes bare versions with "v" so that "1.2" and "v1.2"
// address the same file.
func NormalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	switch {
	case version == "" || strings.EqualFold(version, LatestVersion):
		return LatestVersion
	case strings.HasPrefix(version, "v"):
		return version
	default:
		return "v" + version
	}
}

// DecodeRulePackJSON validates data against the rule pack schema before
// decoding it.
func DecodeRulePackJSON(data []byte) (*domain.RulePack, error) {
	result, err := gojsonschema.Validate(rulePackSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("could not validate rule pack: %w", err)
	}
	if !result.Valid() {
		errs := make([]error, len(result.Errors()))
		for i, e := range result.Errors() {
			errs[i] = errors.New(e.String())
		}
		return nil, fmt.Errorf("invalid rule pack: %w", errors.Join(errs...))
	}

	var pack domain.RulePack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule pack: %w", err)
	}
	return &pack, nil
}

// DecodeRulePackYAML converts YAML to JSON so both formats share one schema.
func DecodeRulePackYAML(data []byte) (*domain.RulePack, error) {
	asJSON, err := yaml.ToJSON(data)
	if err != nil {
		return nil, err
	}
	return DecodeRulePackJSON(asJSON)
}
