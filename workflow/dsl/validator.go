package dsl

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/topicflow/types"
)

// fieldReader reads typed fields from one YAML mapping. Every error it
// returns is a *types.Error tagged with the task kind, index and line.
type fieldReader struct {
	node  *yaml.Node
	kind  string
	index int
}

func (r fieldReader) tag(e *types.Error, at *yaml.Node) *types.Error {
	e.TaskKind = r.kind
	e.TaskIndex = r.index
	if at != nil {
		e.Line = at.Line
	}
	return e
}

func (r fieldReader) missing(path string) error {
	return r.tag(types.NewMissingFieldError(r.kind, path), r.node)
}

func (r fieldReader) mismatch(path, want string, got *yaml.Node) error {
	return r.tag(types.NewTypeMismatchError(r.kind, path, want, describe(got)), got)
}

func (r fieldReader) invalid(path, reason string, at *yaml.Node) error {
	return r.tag(types.NewInvalidValueError(r.kind, path, reason), at)
}

// lookup walks a dotted path. A nil node with a nil error means the field
// is absent or explicitly null.
func (r fieldReader) lookup(path string) (*yaml.Node, error) {
	parts := strings.Split(path, ".")
	cur := r.node
	for i, part := range parts {
		cur = deref(cur)
		if cur.Kind != yaml.MappingNode {
			return nil, r.mismatch(strings.Join(parts[:i], "."), "mapping", cur)
		}
		next := mappingValue(cur, part)
		if next == nil || isNull(deref(next)) {
			return nil, nil
		}
		cur = next
	}
	return deref(cur), nil
}

// spaceName reads "space". The name becomes one directory under the spaces
// root, so it must be a single path element.
func (r fieldReader) spaceName() (string, error) {
	space, err := r.requiredString(fieldSpace)
	if err != nil {
		return "", err
	}
	if space == "." || space == ".." || strings.ContainsAny(space, `/\`) {
		n, _ := r.lookup(fieldSpace)
		return "", r.invalid(fieldSpace, "must be a single directory name without path separators", n)
	}
	return space, nil
}

func (r fieldReader) requiredString(path string) (string, error) {
	n, err := r.lookup(path)
	if err != nil {
		return "", err
	}
	if n == nil {
		return "", r.missing(path)
	}
	if !isTag(n, "!!str") {
		return "", r.mismatch(path, "string", n)
	}
	if strings.TrimSpace(n.Value) == "" {
		return "", r.invalid(path, "must not be empty", n)
	}
	return n.Value, nil
}

// optionalString returns def when the field is absent; present reports
// whether it was set.
func (r fieldReader) optionalString(path, def string) (value string, present bool, err error) {
	n, err := r.lookup(path)
	if err != nil {
		return "", false, err
	}
	if n == nil {
		return def, false, nil
	}
	if !isTag(n, "!!str") {
		return "", false, r.mismatch(path, "string", n)
	}
	if strings.TrimSpace(n.Value) == "" {
		return "", false, r.invalid(path, "must not be empty", n)
	}
	return n.Value, true, nil
}

func (r fieldReader) requiredStringList(path string) ([]string, error) {
	n, err := r.lookup(path)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, r.missing(path)
	}
	if n.Kind != yaml.SequenceNode {
		return nil, r.mismatch(path, "sequence of strings", n)
	}
	if len(n.Content) == 0 {
		return nil, r.invalid(path, "must list at least one file", n)
	}
	out := make([]string, 0, len(n.Content))
	for i, item := range n.Content {
		item = deref(item)
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if !isTag(item, "!!str") {
			return nil, r.mismatch(itemPath, "string", item)
		}
		if strings.TrimSpace(item.Value) == "" {
			return nil, r.invalid(itemPath, "must not be empty", item)
		}
		out = append(out, item.Value)
	}
	return out, nil
}

// optionalInt returns def when absent and rejects values below min.
func (r fieldReader) optionalInt(path string, def, min int) (int, error) {
	n, err := r.lookup(path)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return def, nil
	}
	if !isTag(n, "!!int") {
		return 0, r.mismatch(path, "integer", n)
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return 0, r.invalid(path, "integer out of range", n)
	}
	if v < min {
		return 0, r.invalid(path, fmt.Sprintf("must be >= %d, got %d", min, v), n)
	}
	return v, nil
}

// optionalPositiveFloat returns def when absent. Integers are accepted.
func (r fieldReader) optionalPositiveFloat(path string, def float64) (float64, error) {
	n, err := r.lookup(path)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return def, nil
	}
	if !isTag(n, "!!float") && !isTag(n, "!!int") {
		return 0, r.mismatch(path, "number", n)
	}
	var v float64
	if err := n.Decode(&v); err != nil {
		return 0, r.invalid(path, "not a finite number", n)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, r.invalid(path, fmt.Sprintf("must be a positive finite number, got %s", n.Value), n)
	}
	return v, nil
}

func (r fieldReader) optionalBool(path string, def bool) (bool, error) {
	n, err := r.lookup(path)
	if err != nil {
		return false, err
	}
	if n == nil {
		return def, nil
	}
	if !isTag(n, "!!bool") {
		return false, r.mismatch(path, "boolean", n)
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		return false, r.mismatch(path, "boolean", n)
	}
	return v, nil
}

// --- yaml.Node helpers ---

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func isTag(n *yaml.Node, tag string) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == tag
}

// describe names the YAML type of n for error messages.
func describe(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return "string"
		case "!!int":
			return "integer"
		case "!!float":
			return "float"
		case "!!bool":
			return "boolean"
		case "!!null":
			return "null"
		default:
			return n.ShortTag()
		}
	default:
		return "unknown"
	}
}
