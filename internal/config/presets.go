package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/session"
)

//go:embed presets.schema.json
var presetsSchema []byte

const presetsSchemaURL = "schema://presets.json"

var (
	compileOnce     sync.Once
	compiledPresets *jsonschema.Schema
	compileErr      error
)

// Preset is a named game configuration from presets.toml:
//
//	[[preset]]
//	name = "twos"
//	category = "multiply"
//	base = [2]
//	count = 12
type Preset struct {
	Name     string `toml:"name"`
	Category string `toml:"category"`
	Mode     string `toml:"mode"` // sequence (default), random or timeattack
	Max      int    `toml:"max"`
	Base     []int  `toml:"base"`
	Count    int    `toml:"count"`
	Batch    int    `toml:"batch"`
	Time     string `toml:"time"` // time-attack duration, e.g. "2m"
}

type presetsFile struct {
	Presets []Preset `toml:"preset"`
}

// ErrInvalidPresets indicates a presets file that does not decode or does
// not match the presets schema.
type ErrInvalidPresets struct {
	Path string
	Err  error
}

func (e *ErrInvalidPresets) Error() string {
	return fmt.Sprintf("invalid presets file %s: %v", e.Path, e.Err)
}

func (e *ErrInvalidPresets) Unwrap() error { return e.Err }

// LoadPresets reads and validates the presets file at path. A missing file
// yields no presets.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, &ErrInvalidPresets{Path: path, Err: err}
	}
	if err := validatePresets(raw); err != nil {
		return nil, &ErrInvalidPresets{Path: path, Err: err}
	}

	var f presetsFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, &ErrInvalidPresets{Path: path, Err: err}
	}

	seen := make(map[string]bool, len(f.Presets))
	for _, p := range f.Presets {
		if seen[p.Name] {
			return nil, &ErrInvalidPresets{Path: path, Err: fmt.Errorf("duplicate preset %q", p.Name)}
		}
		seen[p.Name] = true
	}
	return f.Presets, nil
}

// FindPreset returns the preset called name.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// IsTimeAttack reports whether the preset describes a time-attack game.
func (p Preset) IsTimeAttack() bool {
	kind, err := problemgen.ParseModeKind(p.modeName())
	return err == nil && kind == problemgen.ModeTimeAttack
}

// GameConfig converts a bounded preset. Unset fields are left zero so the
// engine settings fill them; defMax is used for random mode without a max.
func (p Preset) GameConfig(defMax int) (session.GameConfig, error) {
	cat, err := problemgen.ParseCategory(p.Category)
	if err != nil {
		return session.GameConfig{}, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	kind, err := problemgen.ParseModeKind(p.modeName())
	if err != nil {
		return session.GameConfig{}, fmt.Errorf("preset %s: %w", p.Name, err)
	}

	var mode problemgen.Mode
	switch kind {
	case problemgen.ModeSequence:
		mode = problemgen.SequenceMode()
	case problemgen.ModeRandom:
		mode = problemgen.RandomMode(p.maxOr(defMax))
	default:
		return session.GameConfig{}, fmt.Errorf("preset %s is a time attack game", p.Name)
	}

	return session.GameConfig{
		Category:    cat,
		Mode:        mode,
		Base:        append([]int(nil), p.Base...),
		BatchSize:   p.Batch,
		TargetCount: p.Count,
	}, nil
}

// TimeAttackConfig converts a time-attack preset, falling back to defMax
// and def for an unset max or duration.
func (p Preset) TimeAttackConfig(defMax int, def session.Duration) (session.TimeAttackConfig, error) {
	if !p.IsTimeAttack() {
		return session.TimeAttackConfig{}, fmt.Errorf("preset %s is not a time attack game", p.Name)
	}
	cat, err := problemgen.ParseCategory(p.Category)
	if err != nil {
		return session.TimeAttackConfig{}, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	d := def
	if p.Time != "" {
		if d, err = session.ParseDuration(p.Time); err != nil {
			return session.TimeAttackConfig{}, fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return session.TimeAttackConfig{
		Category: cat,
		Max:      p.maxOr(defMax),
		Base:     append([]int(nil), p.Base...),
		Duration: d,
	}, nil
}

func (p Preset) modeName() string {
	if p.Mode == "" {
		return "sequence"
	}
	return p.Mode
}

func (p Preset) maxOr(def int) int {
	if p.Max > 0 {
		return p.Max
	}
	return def
}

func validatePresets(raw map[string]any) error {
	schema, err := presetsSchemaCompiled()
	if err != nil {
		return fmt.Errorf("compile presets schema: %w", err)
	}

	// The validator expects JSON values, so re-encode the decoded TOML.
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("decode presets: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func presetsSchemaCompiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal(presetsSchema, &def); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(presetsSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledPresets, compileErr = c.Compile(presetsSchemaURL)
	})
	return compiledPresets, compileErr
}
