// Package core provides the module system foundation for wirereport.
package core

// ModuleID uniquely identifies a module, namespaced by kind
// (e.g. "source.discord", "notify.telegram", "provider.anthropic").
type ModuleID string

// Namespace returns the part of the ID before the first dot.
func (id ModuleID) Namespace() string {
	for i := 0; i < len(id); i++ {
		if id[i] == '.' {
			return string(id[:i])
		}
	}
	return string(id)
}

// ModuleInfo describes a registered module: its ID and a constructor
// returning a fresh, unconfigured instance.
type ModuleInfo struct {
	ID  ModuleID
	New func() Module
}

// Module is the minimal interface every module must implement.
type Module interface {
	ModuleInfo() ModuleInfo
}
