package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDependencyCycle is returned by Sorted when models reference each other
// in a loop.
var ErrDependencyCycle = errors.New("schema: dependency cycle")

// Registry holds linked models by name and by table.
type Registry struct {
	mu      sync.RWMutex
	models  []*Model
	byName  map[string]*Model
	byTable map[string]*Model
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  map[string]*Model{},
		byTable: map[string]*Model{},
	}
}

// Register adds models. Registering a model name twice replaces the first.
func (r *Registry) Register(models ...*Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range models {
		if old, ok := r.byName[m.Name]; ok {
			delete(r.byTable, old.Table)
			for i, existing := range r.models {
				if existing == old {
					r.models = append(r.models[:i], r.models[i+1:]...)
					break
				}
			}
		}
		r.models = append(r.models, m)
		r.byName[m.Name] = m
		r.byTable[m.Table] = m
	}
}

// Lookup finds a model by name.
func (r *Registry) Lookup(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}

// LookupTable finds a model by table.
func (r *Registry) LookupTable(table string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byTable[table]
	return m, ok
}

// Models returns the registered models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Model(nil), r.models...)
}

// Sorted returns the models ordered so that every referenced table comes
// before the tables that reference it. References to tables outside the
// registry are ignored. Ties keep registration order.
func (r *Registry) Sorted() ([]*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	position := make(map[string]int, len(r.models))
	for i, m := range r.models {
		position[m.Table] = i
	}

	indegree := make(map[string]int, len(r.models))
	dependents := map[string][]string{}
	for _, m := range r.models {
		indegree[m.Table] += 0
		for _, dep := range m.dependencies() {
			if _, ok := r.byTable[dep]; !ok {
				continue
			}
			dependents[dep] = append(dependents[dep], m.Table)
			indegree[m.Table]++
		}
	}

	var ready []string
	for _, m := range r.models {
		if indegree[m.Table] == 0 {
			ready = append(ready, m.Table)
		}
	}

	sorted := make([]*Model, 0, len(r.models))
	for len(ready) > 0 {
		table := ready[0]
		ready = ready[1:]
		sorted = append(sorted, r.byTable[table])

		next := dependents[table]
		for _, d := range next {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
		sort.SliceStable(ready, func(i, j int) bool {
			return position[ready[i]] < position[ready[j]]
		})
	}

	if len(sorted) != len(r.models) {
		return nil, fmt.Errorf("%w among %d models", ErrDependencyCycle, len(r.models)-len(sorted))
	}
	return sorted, nil
}
