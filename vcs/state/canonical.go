package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// canonicalDoc is the JSON document form of a PluginState. Collections
// are objects keyed by component id so patch paths stay valid
// regardless of element order, and Go's sorted map-key marshaling
// makes the encoding deterministic down to the byte.
type canonicalDoc struct {
	Hooks       map[string]Hook       `json:"hooks"`
	Events      map[string]Event      `json:"events"`
	Scripts     map[string]Script     `json:"scripts"`
	Widgets     map[string]Widget     `json:"widgets"`
	Controllers map[string]Controller `json:"controllers"`
	Entities    map[string]Entity     `json:"entities"`
	Migrations  map[string]Migration  `json:"migrations"`
	AdminPages  map[string]AdminPage  `json:"admin_pages"`
	Manifest    Manifest              `json:"manifest"`
	Metadata    RegistryMeta          `json:"metadata"`
}

// CanonicalJSON encodes the state as its canonical document.
// Fails if any collection contains a missing or duplicate component id.
func (s *PluginState) CanonicalJSON() ([]byte, error) {
	doc := canonicalDoc{
		Hooks:       make(map[string]Hook, len(s.Hooks)),
		Events:      make(map[string]Event, len(s.Events)),
		Scripts:     make(map[string]Script, len(s.Scripts)),
		Widgets:     make(map[string]Widget, len(s.Widgets)),
		Controllers: make(map[string]Controller, len(s.Controllers)),
		Entities:    make(map[string]Entity, len(s.Entities)),
		Migrations:  make(map[string]Migration, len(s.Migrations)),
		AdminPages:  make(map[string]AdminPage, len(s.AdminPages)),
		Manifest:    s.Manifest,
		Metadata:    s.Metadata,
	}

	if err := indexByID(s.Hooks, doc.Hooks, TypeHook, func(v Hook) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := indexByID(s.Events, doc.Events, TypeEvent, func(v Event) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := indexByID(s.Scripts, doc.Scripts, TypeScript, func(v Script) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := indexByID(s.Widgets, doc.Widgets, TypeWidget, func(v Widget) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := indexByID(s.Controllers, doc.Controllers, TypeController, func(v Controller) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := indexByID(s.Entities, doc.Entities, TypeEntity, func(v Entity) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := indexByID(s.Migrations, doc.Migrations, TypeMigration, func(v Migration) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := indexByID(s.AdminPages, doc.AdminPages, TypeAdminPage, func(v AdminPage) string { return v.ID }); err != nil {
		return nil, err
	}

	return json.Marshal(doc)
}

// FromCanonicalJSON decodes a canonical document back into a typed
// state. Unknown fields are rejected so a field typo in a stored patch
// surfaces as a decode error instead of silent data loss.
func FromCanonicalJSON(data []byte) (*PluginState, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc canonicalDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode canonical state: %w", err)
	}

	s := &PluginState{
		Manifest: doc.Manifest,
		Metadata: doc.Metadata,
	}

	var err error
	if s.Hooks, err = collectByID(doc.Hooks, TypeHook, func(v *Hook) *string { return &v.ID }); err != nil {
		return nil, err
	}
	if s.Events, err = collectByID(doc.Events, TypeEvent, func(v *Event) *string { return &v.ID }); err != nil {
		return nil, err
	}
	if s.Scripts, err = collectByID(doc.Scripts, TypeScript, func(v *Script) *string { return &v.ID }); err != nil {
		return nil, err
	}
	if s.Widgets, err = collectByID(doc.Widgets, TypeWidget, func(v *Widget) *string { return &v.ID }); err != nil {
		return nil, err
	}
	if s.Controllers, err = collectByID(doc.Controllers, TypeController, func(v *Controller) *string { return &v.ID }); err != nil {
		return nil, err
	}
	if s.Entities, err = collectByID(doc.Entities, TypeEntity, func(v *Entity) *string { return &v.ID }); err != nil {
		return nil, err
	}
	if s.Migrations, err = collectByID(doc.Migrations, TypeMigration, func(v *Migration) *string { return &v.ID }); err != nil {
		return nil, err
	}
	if s.AdminPages, err = collectByID(doc.AdminPages, TypeAdminPage, func(v *AdminPage) *string { return &v.ID }); err != nil {
		return nil, err
	}

	return s, nil
}

// Clone returns a deep copy via the canonical encoding
func (s *PluginState) Clone() (*PluginState, error) {
	data, err := s.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return FromCanonicalJSON(data)
}

// Equal reports whether two states have identical canonical encodings
func (s *PluginState) Equal(o *PluginState) (bool, error) {
	a, err := s.CanonicalJSON()
	if err != nil {
		return false, err
	}
	b, err := o.CanonicalJSON()
	if err != nil {
		return false, err
	}
	return bytes.Equal(a, b), nil
}

// Element is the differ's uniform view of one component: its stable
// id, display name, and field map in canonical JSON form. Singleton
// types (manifest, metadata) are exposed as a single element with an
// empty id.
type Element struct {
	ID     string
	Name   string
	Fields map[string]json.RawMessage
}

// Elements returns the elements of one component type, sorted by id
func (s *PluginState) Elements(t ComponentType) ([]Element, error) {
	switch t {
	case TypeHook:
		return elementsOf(s.Hooks, func(v Hook) (string, string) { return v.ID, v.Name })
	case TypeEvent:
		return elementsOf(s.Events, func(v Event) (string, string) { return v.ID, v.Name })
	case TypeScript:
		return elementsOf(s.Scripts, func(v Script) (string, string) { return v.ID, v.Name })
	case TypeWidget:
		return elementsOf(s.Widgets, func(v Widget) (string, string) { return v.ID, v.Name })
	case TypeController:
		return elementsOf(s.Controllers, func(v Controller) (string, string) { return v.ID, v.Name })
	case TypeEntity:
		return elementsOf(s.Entities, func(v Entity) (string, string) { return v.ID, v.Name })
	case TypeMigration:
		return elementsOf(s.Migrations, func(v Migration) (string, string) { return v.ID, v.Name })
	case TypeAdminPage:
		return elementsOf(s.AdminPages, func(v AdminPage) (string, string) { return v.ID, v.Name })
	case TypeManifest:
		return singletonElement(s.Manifest, "manifest")
	case TypeMetadata:
		return singletonElement(s.Metadata, "metadata")
	}
	return nil, fmt.Errorf("unknown component type: %s", t)
}

func indexByID[T any](items []T, into map[string]T, t ComponentType, id func(T) string) error {
	for _, item := range items {
		key := id(item)
		if key == "" {
			return fmt.Errorf("%s component with empty id", t)
		}
		if _, dup := into[key]; dup {
			return fmt.Errorf("duplicate %s id: %s", t, key)
		}
		into[key] = item
	}
	return nil
}

func collectByID[T any](m map[string]T, t ComponentType, id func(*T) *string) ([]T, error) {
	out := make([]T, 0, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		got := *id(&v)
		if got != "" && got != k {
			return nil, fmt.Errorf("%s element keyed %q carries id %q", t, k, got)
		}
		*id(&v) = k
		out = append(out, v)
	}
	return out, nil
}

func elementsOf[T any](items []T, idName func(T) (string, string)) ([]Element, error) {
	out := make([]Element, 0, len(items))
	for _, item := range items {
		id, name := idName(item)
		fields, err := fieldMap(item)
		if err != nil {
			return nil, err
		}
		out = append(out, Element{ID: id, Name: name, Fields: fields})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func singletonElement(v any, name string) ([]Element, error) {
	fields, err := fieldMap(v)
	if err != nil {
		return nil, err
	}
	return []Element{{ID: "", Name: name, Fields: fields}}, nil
}

func fieldMap(v any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal component: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal component fields: %w", err)
	}
	return fields, nil
}
