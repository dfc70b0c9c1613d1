package driver

import (
	"fmt"
	"sync"

	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

// NewAdapterFunc builds a source for the given session parameters.
type NewAdapterFunc func(p prop.Init) (Adapter, error)

type manager struct {
	mu      sync.RWMutex
	sources map[prop.InputType]NewAdapterFunc
}

var managerInstance = &manager{
	sources: make(map[prop.InputType]NewAdapterFunc),
}

// GetManager gets manager singleton instance.
func GetManager() *manager {
	return managerInstance
}

// Register registers the source constructor for an input type. Sources
// call it from their package init, so importing a source package is enough
// to make it available.
func (m *manager) Register(input prop.InputType, newAdapter NewAdapterFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[input] = newAdapter
}

// Registered reports whether a source is available for input.
func (m *manager) Registered(input prop.InputType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sources[input]
	return ok
}

// Open builds the source selected by p and opens it.
func (m *manager) Open(p prop.Init) (Driver, error) {
	m.mu.RLock()
	newAdapter, ok := m.sources[p.Input]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no source registered for %s input", p.Input)
	}

	a, err := newAdapter(p)
	if err != nil {
		return nil, err
	}

	d := wrapAdapter(a)
	if err := d.Open(); err != nil {
		return nil, err
	}
	return d, nil
}
