// Package state defines the typed plugin state model the version
// engine operates over. Each component category is a concrete struct
// rather than a loose JSON map, so diffing and patching work over
// statically known shapes.
package state

// ComponentType is one category of plugin artifact
type ComponentType string

const (
	TypeHook       ComponentType = "hook"
	TypeEvent      ComponentType = "event"
	TypeScript     ComponentType = "script"
	TypeWidget     ComponentType = "widget"
	TypeController ComponentType = "controller"
	TypeEntity     ComponentType = "entity"
	TypeMigration  ComponentType = "migration"
	TypeAdminPage  ComponentType = "admin_page"
	TypeManifest   ComponentType = "manifest"
	TypeMetadata   ComponentType = "metadata"
)

// CollectionTypes are the component types holding a collection of
// id-addressed elements. Manifest and metadata are singletons.
var CollectionTypes = []ComponentType{
	TypeHook,
	TypeEvent,
	TypeScript,
	TypeWidget,
	TypeController,
	TypeEntity,
	TypeMigration,
	TypeAdminPage,
}

// AllTypes lists every component type, collections first
var AllTypes = append(append([]ComponentType{}, CollectionTypes...), TypeManifest, TypeMetadata)

// CollectionKey returns the key under which a component type's
// collection lives in the canonical document. Patch paths start with
// this key: /hooks/h2/callback.
func (t ComponentType) CollectionKey() string {
	switch t {
	case TypeHook:
		return "hooks"
	case TypeEvent:
		return "events"
	case TypeScript:
		return "scripts"
	case TypeWidget:
		return "widgets"
	case TypeController:
		return "controllers"
	case TypeEntity:
		return "entities"
	case TypeMigration:
		return "migrations"
	case TypeAdminPage:
		return "admin_pages"
	case TypeManifest:
		return "manifest"
	case TypeMetadata:
		return "metadata"
	}
	return string(t)
}

// TypeForCollectionKey resolves a canonical document key back to its
// component type. Returns "" for unknown keys.
func TypeForCollectionKey(key string) ComponentType {
	for _, t := range AllTypes {
		if t.CollectionKey() == key {
			return t
		}
	}
	return ""
}

// Hook is a callback registered on a named extension point
type Hook struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Target   string `json:"target"`
	Callback string `json:"callback"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`
}

// Event is a listener bound to an application event
type Event struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	EventName string `json:"event_name"`
	Listener  string `json:"listener"`
	Async     bool   `json:"async"`
}

// Script is an executable source body shipped with the plugin
type Script struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Language   string `json:"language"`
	Source     string `json:"source"`
	Entrypoint string `json:"entrypoint"`
}

// Widget is a renderable UI fragment
type Widget struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Template string `json:"template"`
	CacheTTL int    `json:"cache_ttl"`
}

// Controller maps a route to a handler
type Controller struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Route   string `json:"route"`
	Method  string `json:"method"`
	Handler string `json:"handler"`
}

// Entity declares a persisted record type owned by the plugin
type Entity struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	TableName string            `json:"table_name"`
	Schema    map[string]string `json:"schema"`
}

// Migration is a schema change script with explicit ordering
type Migration struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Sequence int    `json:"sequence"`
	UpSQL    string `json:"up_sql"`
	DownSQL  string `json:"down_sql"`
}

// AdminPage is a backoffice page contributed by the plugin
type AdminPage struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Template  string `json:"template"`
	MenuOrder int    `json:"menu_order"`
}

// Constraint is a named CEL expression evaluated against the desired
// state before every commit
type Constraint struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// Manifest is the plugin's self-description (singleton)
type Manifest struct {
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Version       string       `json:"version"`
	Description   string       `json:"description"`
	Author        string       `json:"author"`
	License       string       `json:"license"`
	MinAppVersion string       `json:"min_app_version"`
	Constraints   []Constraint `json:"constraints"`
}

// RegistryMeta is registry-facing metadata (singleton)
type RegistryMeta struct {
	Homepage   string            `json:"homepage"`
	Repository string            `json:"repository"`
	Category   string            `json:"category"`
	Keywords   []string          `json:"keywords"`
	Settings   map[string]string `json:"settings"`
}

// PluginState is the full materialized state of a plugin at one
// version: every component collection plus the two singletons.
type PluginState struct {
	Hooks       []Hook       `json:"hooks"`
	Events      []Event      `json:"events"`
	Scripts     []Script     `json:"scripts"`
	Widgets     []Widget     `json:"widgets"`
	Controllers []Controller `json:"controllers"`
	Entities    []Entity     `json:"entities"`
	Migrations  []Migration  `json:"migrations"`
	AdminPages  []AdminPage  `json:"admin_pages"`
	Manifest    Manifest     `json:"manifest"`
	Metadata    RegistryMeta `json:"metadata"`
}
