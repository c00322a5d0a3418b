package compiler

import (
	"fmt"
	"io/fs"

	"sigs.k8s.io/yaml"
)

// DefaultRuntimeImport is the runtime package generated code imports unless
// configured otherwise.
const DefaultRuntimeImport = "github.com/vcrobe/vgc/runtime"

// Options controls code generation.
type Options struct {
	// Package is the package clause of the generated file.
	Package string `json:"package,omitempty"`
	// RuntimeImport is the import path of the runtime support package.
	RuntimeImport string `json:"runtime,omitempty"`
	// Header is an optional comment placed above the generated-code marker,
	// one comment line per line of text.
	Header string `json:"header,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = "views"
	}
	if o.RuntimeImport == "" {
		o.RuntimeImport = DefaultRuntimeImport
	}
	return o
}

// Merge returns o with every non-empty field of over applied on top.
func (o Options) Merge(over Options) Options {
	if over.Package != "" {
		o.Package = over.Package
	}
	if over.RuntimeImport != "" {
		o.RuntimeImport = over.RuntimeImport
	}
	if over.Header != "" {
		o.Header = over.Header
	}
	return o
}

// Config is the content of a vgc.yaml file.
//
//	package: views
//	runtime: github.com/vcrobe/vgc/runtime
//	output: views/views_vg.go
//	sources:
//	  - views/app.vg
type Config struct {
	Options
	Output  string   `json:"output,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// LoadConfig reads a YAML configuration file from fsys. Unknown keys are
// rejected so that typos do not pass silently.
func LoadConfig(fsys fs.FS, name string) (*Config, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config: %v", ErrIO, err)
	}
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", name, err)
	}
	return cfg, nil
}
