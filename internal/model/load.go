package model

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// LoadError is a model file that could not be read, parsed or validated.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads a model from a .cue file, a directory of .cue files, or a
// .yaml/.yml file, and validates its structure.
func Load(path string) (*Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("cannot access model: %v", err)}
	}

	var m *Model
	switch {
	case info.IsDir():
		m, err = loadCUEDir(path)
	case filepath.Ext(path) == ".cue":
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			m, err = LoadCUE(path, data)
		}
	case filepath.Ext(path) == ".yaml", filepath.Ext(path) == ".yml":
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			m, err = LoadYAML(path, data)
		}
	default:
		return nil, &LoadError{Path: path, Message: "unsupported model format; use .cue, .yaml or a CUE directory"}
	}
	if err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadYAML decodes a YAML model. Unknown fields are rejected.
func LoadYAML(path string, data []byte) (*Model, error) {
	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	return &m, nil
}

// LoadCUE compiles a single CUE file and decodes it against the model schema.
func LoadCUE(path string, data []byte) (*Model, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueError(path, err)
	}
	return decodeCUE(ctx, path, v)
}

func loadCUEDir(dir string) (*Model, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Path: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(dir, inst.Err)
	}
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, cueError(dir, err)
	}
	return decodeCUE(ctx, dir, v)
}

func decodeCUE(ctx *cue.Context, path string, v cue.Value) (*Model, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile model schema: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Model")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, err)
	}

	var m Model
	if err := unified.Decode(&m); err != nil {
		return nil, cueError(path, err)
	}
	return &m, nil
}

// cueError keeps the first CUE error with its position.
func cueError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Path: path, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// IsLoadError reports whether err is a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
