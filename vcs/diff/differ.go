// Package diff computes minimal structural diffs between two versions
// of a plugin's component collections.
package diff

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pluginforge/pluginvcs/vcs/patch"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// ChangeType classifies a component type's diff as a whole
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// TypeDiff is the diff of one component type's collection: forward
// operations, the matching reverse operations (undo by applying them
// in reverse order), and classification for display.
type TypeDiff struct {
	Type       state.ComponentType
	Ops        []patch.Operation
	ReverseOps []patch.Operation
	ChangeType ChangeType
	OpsCount   int

	// Component ids per change class, sorted
	Added    []string
	Modified []string
	Deleted  []string

	// Line statistics for textual fields, display-only
	LinesAdded   int
	LinesDeleted int
}

// Collections diffs one component type's collections. Matching is by
// stable component id; a changed component yields one replace per
// changed field so patches stay minimal and legible. Returns nil when
// the collections are identical.
//
// Output is deterministic: ids and field names are visited in sorted
// order, so identical inputs produce byte-identical op lists.
func Collections(t state.ComponentType, before, after []state.Element) (*TypeDiff, error) {
	beforeByID := indexElements(before)
	afterByID := indexElements(after)

	ids := unionIDs(beforeByID, afterByID)

	d := &TypeDiff{Type: t}
	key := t.CollectionKey()

	for _, id := range ids {
		b, inBefore := beforeByID[id]
		a, inAfter := afterByID[id]

		switch {
		case !inBefore:
			value, err := elementValue(a)
			if err != nil {
				return nil, err
			}
			d.Ops = append(d.Ops, patch.Operation{Op: patch.OpAdd, Path: patch.JoinPath(key, id), Value: value})
			d.ReverseOps = append(d.ReverseOps, patch.Operation{Op: patch.OpRemove, Path: patch.JoinPath(key, id)})
			d.Added = append(d.Added, id)

		case !inAfter:
			value, err := elementValue(b)
			if err != nil {
				return nil, err
			}
			d.Ops = append(d.Ops, patch.Operation{Op: patch.OpRemove, Path: patch.JoinPath(key, id)})
			d.ReverseOps = append(d.ReverseOps, patch.Operation{Op: patch.OpAdd, Path: patch.JoinPath(key, id), Value: value})
			d.Deleted = append(d.Deleted, id)

		default:
			changed := diffFields(key, id, b, a, d)
			if changed {
				d.Modified = append(d.Modified, id)
			}
		}

		countLines(t, b, a, inBefore, inAfter, d)
	}

	if len(d.Ops) == 0 {
		return nil, nil
	}

	d.OpsCount = len(d.Ops)
	d.ChangeType = classify(len(before), len(after))
	return d, nil
}

// States diffs every component type between two full states, skipping
// unchanged types. Singleton types (manifest, metadata) diff at field
// level and always classify as modified.
func States(before, after *state.PluginState) ([]*TypeDiff, error) {
	var out []*TypeDiff

	for _, t := range state.AllTypes {
		be, err := before.Elements(t)
		if err != nil {
			return nil, fmt.Errorf("elements of %s: %w", t, err)
		}
		ae, err := after.Elements(t)
		if err != nil {
			return nil, fmt.Errorf("elements of %s: %w", t, err)
		}

		d, err := Collections(t, be, ae)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", t, err)
		}
		if d != nil {
			out = append(out, d)
		}
	}

	return out, nil
}

// diffFields emits one replace (with its inverse) per changed field.
// Paths address singletons directly (/manifest/version) and collection
// elements by id (/hooks/h2/callback).
func diffFields(key, id string, before, after state.Element, d *TypeDiff) bool {
	fields := make([]string, 0, len(after.Fields))
	for f := range after.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	changed := false
	for _, f := range fields {
		oldVal, ok := before.Fields[f]
		newVal := after.Fields[f]
		if ok && bytes.Equal(oldVal, newVal) {
			continue
		}

		var segs []string
		if id == "" {
			segs = []string{key, f}
		} else {
			segs = []string{key, id, f}
		}
		path := patch.JoinPath(segs...)

		if !ok {
			d.Ops = append(d.Ops, patch.Operation{Op: patch.OpAdd, Path: path, Value: newVal})
			d.ReverseOps = append(d.ReverseOps, patch.Operation{Op: patch.OpRemove, Path: path})
		} else {
			d.Ops = append(d.Ops, patch.Operation{Op: patch.OpReplace, Path: path, Value: newVal})
			d.ReverseOps = append(d.ReverseOps, patch.Operation{Op: patch.OpReplace, Path: path, Value: oldVal})
		}
		changed = true
	}

	// Fields present before but gone after (possible only for map-typed
	// fields decoded from older documents)
	removed := make([]string, 0)
	for f := range before.Fields {
		if _, ok := after.Fields[f]; !ok {
			removed = append(removed, f)
		}
	}
	sort.Strings(removed)
	for _, f := range removed {
		var segs []string
		if id == "" {
			segs = []string{key, f}
		} else {
			segs = []string{key, id, f}
		}
		path := patch.JoinPath(segs...)
		d.Ops = append(d.Ops, patch.Operation{Op: patch.OpRemove, Path: path})
		d.ReverseOps = append(d.ReverseOps, patch.Operation{Op: patch.OpAdd, Path: path, Value: before.Fields[f]})
		changed = true
	}

	return changed
}

func classify(beforeLen, afterLen int) ChangeType {
	switch {
	case beforeLen == 0:
		return ChangeAdded
	case afterLen == 0:
		return ChangeDeleted
	default:
		return ChangeModified
	}
}

func indexElements(elems []state.Element) map[string]state.Element {
	m := make(map[string]state.Element, len(elems))
	for _, e := range elems {
		m[e.ID] = e
	}
	return m
}

func unionIDs(a, b map[string]state.Element) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	ids := make([]string, 0, len(a)+len(b))
	for id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func elementValue(e state.Element) ([]byte, error) {
	// Rebuild the canonical object from the field map with sorted keys
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := jsonString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(e.Fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
