package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// registry is a catalog of module infos keyed by ID. The package-level
// instance is populated from module init functions before main runs.
type registry struct {
	mu    sync.RWMutex
	infos map[string]ModuleInfo
}

var defaultRegistry = &registry{infos: make(map[string]ModuleInfo)}

func (r *registry) add(info ModuleInfo) {
	if info.ID == "" {
		panic("module ID must not be empty")
	}
	if info.New == nil {
		panic(fmt.Sprintf("module %s: New function must not be nil", info.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := string(info.ID)
	if _, exists := r.infos[id]; exists {
		panic(fmt.Sprintf("module already registered: %s", id))
	}
	r.infos[id] = info
}

func (r *registry) lookup(id string) (ModuleInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[id]
	return info, ok
}

func (r *registry) all() []ModuleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ModuleInfo, 0, len(r.infos))
	for _, info := range r.infos {
		result = append(result, info)
	}
	slices.SortFunc(result, func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// RegisterModule adds a module to the process-wide catalog by reading its
// ModuleInfo. It panics on an empty ID, a nil constructor, or a duplicate
// registration; it is meant to run from init(), where a panic surfaces a
// programming error at startup.
func RegisterModule(instance Module) {
	defaultRegistry.add(instance.ModuleInfo())
}

// GetModule returns the registered info for an ID.
func GetModule(id string) (ModuleInfo, bool) {
	return defaultRegistry.lookup(id)
}

// GetModules returns every registered module, sorted by ID.
func GetModules() []ModuleInfo {
	return defaultRegistry.all()
}
