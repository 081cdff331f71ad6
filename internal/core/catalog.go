package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

// SourceDefinition describes one dataset kind: its canonical name and the file
// it is read from by default.
type SourceDefinition struct {
	Name  string // Canonical dataset name: "CountyList"
	File  string // Default file name, relative to the data directory
	Order int    // Load order; lower loads first
	Group string // "County" or "State"
	Label string // Display name: "County List"
}

var (
	catalog   = make(map[string]SourceDefinition)
	catalogMu sync.RWMutex
)

// Register adds a source definition to the catalog.
// Panics if a definition with the same name is already registered.
func Register(def SourceDefinition) {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	if def.Name == "" {
		panic("source definition without a name")
	}
	if _, exists := catalog[def.Name]; exists {
		panic(fmt.Sprintf("source already registered: %s", def.Name))
	}
	if def.Label == "" {
		def.Label = def.Name
	}

	catalog[def.Name] = def
}

// Lookup returns a source definition by name.
func Lookup(name string) (SourceDefinition, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	def, ok := catalog[name]
	return def, ok
}

// Definitions returns all registered definitions in load order.
// Ties are broken by name.
func Definitions() []SourceDefinition {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	result := make([]SourceDefinition, 0, len(catalog))
	for _, def := range catalog {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// ByGroup returns the definitions of one group in load order.
func ByGroup(group string) []SourceDefinition {
	var result []SourceDefinition
	for _, def := range Definitions() {
		if def.Group == group {
			result = append(result, def)
		}
	}
	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range catalog {
		seen[def.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// DefinitionCount returns the number of registered definitions.
func DefinitionCount() int {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	return len(catalog)
}

// Source is a dataset name bound to a concrete file path.
type Source struct {
	Name string
	Path string
}

// ResolveSources binds every registered definition to a path under dataDir.
// overrides maps dataset names to file names replacing the default; absolute
// override paths are used as-is.
func ResolveSources(dataDir string, overrides map[string]string) []Source {
	defs := Definitions()
	sources := make([]Source, len(defs))
	for i, def := range defs {
		file := def.File
		if o, ok := overrides[def.Name]; ok && o != "" {
			file = o
		}
		if !filepath.IsAbs(file) {
			file = filepath.Join(dataDir, file)
		}
		sources[i] = Source{Name: def.Name, Path: file}
	}
	return sources
}
