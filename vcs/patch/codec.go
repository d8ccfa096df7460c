// Package patch implements the structural patch codec: RFC6902-style
// operations addressed by stable component id, applied over the
// canonical document form of a PluginState.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/pluginforge/pluginvcs/vcs/state"
)

// ErrPatchConflict reports an operation whose path does not resolve
// the way its op requires: replace/remove of a missing element, or an
// add colliding with an existing component id.
var ErrPatchConflict = errors.New("patch conflict")

// ErrInvalidOperation reports a structurally malformed operation,
// rejected before anything is applied.
var ErrInvalidOperation = errors.New("invalid patch operation")

// OpType enumerates the supported patch operations
type OpType string

const (
	OpAdd     OpType = "add"
	OpReplace OpType = "replace"
	OpRemove  OpType = "remove"
)

// Operation is one structural change. Path addresses a component by
// collection key and stable id, then optionally a field within it:
// /hooks/h2 or /hooks/h2/callback.
type Operation struct {
	Op    OpType          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ValidateOps checks operation shape before any apply. Every commit
// path runs this so a malformed patch is rejected with nothing written.
func ValidateOps(ops []Operation) error {
	for i, op := range ops {
		if err := validateOp(op); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func validateOp(op Operation) error {
	switch op.Op {
	case OpAdd, OpReplace:
		if len(op.Value) == 0 {
			return fmt.Errorf("%w: 'value' required for %s", ErrInvalidOperation, op.Op)
		}
	case OpRemove:
	default:
		return fmt.Errorf("%w: unsupported op type %q", ErrInvalidOperation, op.Op)
	}

	segs, err := splitPointer(op.Path)
	if err != nil {
		return err
	}
	t := state.TypeForCollectionKey(segs[0])
	if t == "" {
		return fmt.Errorf("%w: unknown collection %q in path %s", ErrInvalidOperation, segs[0], op.Path)
	}
	if (t == state.TypeManifest || t == state.TypeMetadata) && len(segs) < 2 {
		return fmt.Errorf("%w: %s operations must address a field", ErrInvalidOperation, t)
	}
	return nil
}

// Apply applies ops to a state, strictly in list order, and returns
// the resulting state. The input state is not mutated.
func Apply(st *state.PluginState, ops []Operation) (*state.PluginState, error) {
	doc, err := st.CanonicalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	doc, err = ApplyToDoc(doc, ops)
	if err != nil {
		return nil, err
	}

	out, err := state.FromCanonicalJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: patched document no longer decodes: %v", ErrPatchConflict, err)
	}
	return out, nil
}

// Revert undoes a patch by applying its reverse operations in reverse
// list order.
func Revert(st *state.PluginState, reverseOps []Operation) (*state.PluginState, error) {
	reversed := make([]Operation, 0, len(reverseOps))
	for i := len(reverseOps) - 1; i >= 0; i-- {
		reversed = append(reversed, reverseOps[i])
	}
	return Apply(st, reversed)
}

// ApplyToDoc applies ops to a canonical document. Operations are
// applied one at a time so a failure names the offending index and
// later operations see the effects of earlier ones.
func ApplyToDoc(doc []byte, ops []Operation) ([]byte, error) {
	if err := ValidateOps(ops); err != nil {
		return nil, err
	}

	for i, op := range ops {
		if err := checkConflict(doc, op); err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}

		encoded, err := json.Marshal([]Operation{op})
		if err != nil {
			return nil, fmt.Errorf("operation %d: encode: %w", i, err)
		}
		p, err := jsonpatch.DecodePatch(encoded)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w: %v", i, ErrInvalidOperation, err)
		}
		doc, err = p.Apply(doc)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w: %v", i, op.Op, op.Path, ErrPatchConflict, err)
		}
	}

	return doc, nil
}

// Invert produces reverse operations for ops as constructed against
// before. Applying ops and then the result via Revert restores before
// exactly.
func Invert(ops []Operation, before *state.PluginState) ([]Operation, error) {
	doc, err := before.CanonicalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	if err := ValidateOps(ops); err != nil {
		return nil, err
	}

	reverse := make([]Operation, 0, len(ops))
	for i, op := range ops {
		old, exists, err := resolve(doc, op.Path)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}

		switch op.Op {
		case OpAdd:
			if exists {
				return nil, fmt.Errorf("operation %d (add %s): %w: target already exists", i, op.Path, ErrPatchConflict)
			}
			reverse = append(reverse, Operation{Op: OpRemove, Path: op.Path})
		case OpReplace:
			if !exists {
				return nil, fmt.Errorf("operation %d (replace %s): %w: no such target", i, op.Path, ErrPatchConflict)
			}
			reverse = append(reverse, Operation{Op: OpReplace, Path: op.Path, Value: old})
		case OpRemove:
			if !exists {
				return nil, fmt.Errorf("operation %d (remove %s): %w: no such target", i, op.Path, ErrPatchConflict)
			}
			reverse = append(reverse, Operation{Op: OpAdd, Path: op.Path, Value: old})
		}

		// Advance so later inverses see earlier effects
		doc, err = ApplyToDoc(doc, []Operation{op})
		if err != nil {
			return nil, err
		}
	}

	return reverse, nil
}

// checkConflict enforces the id-collision rule jsonpatch does not:
// an add at an element path must not overwrite an existing component.
// Missing targets for replace/remove are also caught here so the
// error is typed instead of a bare library failure.
func checkConflict(doc []byte, op Operation) error {
	_, exists, err := resolve(doc, op.Path)
	if err != nil {
		return err
	}

	switch op.Op {
	case OpAdd:
		segs, _ := splitPointer(op.Path)
		if len(segs) == 2 && exists {
			return fmt.Errorf("%w: component id already exists", ErrPatchConflict)
		}
	case OpReplace, OpRemove:
		if !exists {
			return fmt.Errorf("%w: no such target", ErrPatchConflict)
		}
	}
	return nil
}

// resolve walks a JSON Pointer through the document and returns the
// value found there, re-encoded canonically.
func resolve(doc []byte, path string) (json.RawMessage, bool, error) {
	segs, err := splitPointer(path)
	if err != nil {
		return nil, false, err
	}

	var node any
	if err := json.Unmarshal(doc, &node); err != nil {
		return nil, false, fmt.Errorf("decode document: %w", err)
	}

	for _, seg := range segs {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		node, ok = obj[seg]
		if !ok {
			return nil, false, nil
		}
	}

	encoded, err := json.Marshal(node)
	if err != nil {
		return nil, false, fmt.Errorf("encode resolved value: %w", err)
	}
	return encoded, true, nil
}

// EscapePointer escapes one path segment per RFC6901
func EscapePointer(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}

// JoinPath builds a JSON Pointer from unescaped segments
func JoinPath(segs ...string) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteByte('/')
		b.WriteString(EscapePointer(seg))
	}
	return b.String()
}

func splitPointer(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path must start with /: %q", ErrInvalidOperation, path)
	}
	raw := strings.Split(path[1:], "/")
	if len(raw) == 0 || raw[0] == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidOperation)
	}
	segs := make([]string, len(raw))
	for i, seg := range raw {
		seg = strings.ReplaceAll(seg, "~1", "/")
		segs[i] = strings.ReplaceAll(seg, "~0", "~")
	}
	return segs, nil
}
