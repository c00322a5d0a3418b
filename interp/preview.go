package interp

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/vcrobe/vgc/compiler"
	"github.com/vcrobe/vgc/runtime"
	"github.com/vcrobe/vgc/vdom"
)

// DecodeInput reads a view input from YAML or JSON. Numbers decode as
// float64, objects as records and arrays as lists.
func DecodeInput(data []byte) (Record, error) {
	var in Record
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decoding view input: %w", err)
	}
	if in == nil {
		in = Record{}
	}
	return in, nil
}

// Preview builds a view into a fresh in-memory document and returns its
// HTML. The previously selected document is restored afterwards.
func Preview(prog *compiler.Program, name string, input Record) (string, error) {
	doc := vdom.NewDocument()
	prev := runtime.CurrentDocument()
	runtime.SetDocument(doc)
	defer runtime.SetDocument(prev)

	st, err := New(prog).Build(name, input)
	if err != nil {
		return "", err
	}
	root := doc.Root()
	root.AppendChild(st.Root)
	return vdom.HTML(root)
}
