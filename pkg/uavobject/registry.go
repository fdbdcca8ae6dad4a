// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package uavobject

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aviary-gcs/aviary/pkg/skytalk"
)

// UpdateFunc is called after an object instance is updated from the link.
// data is a copy owned by the callee.
//
// The callback runs outside the registry's lock but on the receive path,
// inside the skytalk.Connection that invoked Unpack. It must not call back
// into that Connection (Stats, SendObject, ...); hand the work to another
// goroutine instead.
type UpdateFunc func(def *Definition, instID uint16, data []byte)

// Registry holds object definitions and their instance data. It implements
// skytalk.ObjectModel and is safe for concurrent use by the receive path
// and local callers.
type Registry struct {
	mu       sync.RWMutex
	defs     map[uint32]*Definition
	byName   map[string]*Definition
	data     map[uint32][][]byte // instance blocks indexed by instance ID
	onUpdate UpdateFunc
}

var _ skytalk.ObjectModel = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:   make(map[uint32]*Definition),
		byName: make(map[string]*Definition),
		data:   make(map[uint32][][]byte),
	}
}

// Register adds a definition. Single-instance objects get their instance 0
// created immediately, zero-valued; multi-instance objects start with no
// live instances.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.defs[def.ID]; dup {
		return fmt.Errorf("uavobject: duplicate object ID 0x%08X", def.ID)
	}
	if _, dup := r.byName[def.Name]; dup {
		return fmt.Errorf("uavobject: duplicate object name %q", def.Name)
	}

	r.defs[def.ID] = def
	r.byName[def.Name] = def
	if def.SingleInstance {
		r.data[def.ID] = [][]byte{make([]byte, def.NumBytes())}
	} else {
		r.data[def.ID] = nil
	}
	return nil
}

// RegisterAll registers a set of definitions, stopping at the first error.
func (r *Registry) RegisterAll(defs []*Definition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// SetUpdateFunc installs the callback invoked for every instance updated
// through Unpack (i.e. from the link). Local writes via SetInstance do not
// trigger it.
func (r *Registry) SetUpdateFunc(fn UpdateFunc) {
	r.mu.Lock()
	r.onUpdate = fn
	r.mu.Unlock()
}

// Definition returns the definition for an object ID.
func (r *Registry) Definition(id uint32) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return def, ok
}

// DefinitionByName returns the definition with the given name.
func (r *Registry) DefinitionByName(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Definitions returns all registered definitions sorted by ID.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Instance returns a copy of the encoded data for (id, instID).
func (r *Registry) Instance(id uint32, instID uint16) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	insts := r.data[id]
	if int(instID) >= len(insts) {
		return nil, false
	}
	out := make([]byte, len(insts[instID]))
	copy(out, insts[instID])
	return out, true
}

// SetInstance writes encoded data locally, creating the instance when
// instID equals the current instance count. Used by senders preparing an
// object before transmission.
func (r *Registry) SetInstance(id uint32, instID uint16, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.storeLocked(id, instID, data)
}

// storeLocked validates and stores one instance block. Caller holds mu.
func (r *Registry) storeLocked(id uint32, instID uint16, data []byte) error {
	def, ok := r.defs[id]
	if !ok {
		return fmt.Errorf("uavobject: unknown object 0x%08X", id)
	}
	if len(data) != def.NumBytes() {
		return fmt.Errorf("uavobject: %s: data length %d, want %d", def.Name, len(data), def.NumBytes())
	}
	if def.SingleInstance && instID != 0 {
		return fmt.Errorf("uavobject: %s is single-instance, got instance %d", def.Name, instID)
	}

	insts := r.data[id]
	switch {
	case int(instID) < len(insts):
		copy(insts[instID], data)
	case int(instID) == len(insts):
		// Instances are created in order; no sparse instance IDs.
		block := make([]byte, def.NumBytes())
		copy(block, data)
		r.data[id] = append(insts, block)
	default:
		return fmt.Errorf("uavobject: %s: cannot create instance %d, have %d", def.Name, instID, len(insts))
	}
	return nil
}

// Exists implements skytalk.ObjectModel.
func (r *Registry) Exists(id uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[id]
	return ok
}

// SizeOf implements skytalk.ObjectModel.
func (r *Registry) SizeOf(id uint32) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	if !ok {
		return 0
	}
	return def.NumBytes()
}

// InstanceCount implements skytalk.ObjectModel.
func (r *Registry) InstanceCount(id uint32) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data[id])
}

// IsSingleInstance implements skytalk.ObjectModel.
func (r *Registry) IsSingleInstance(id uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return ok && def.SingleInstance
}

// Pack implements skytalk.ObjectModel.
func (r *Registry) Pack(id uint32, instID uint16, out []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	if !ok {
		return fmt.Errorf("uavobject: unknown object 0x%08X", id)
	}
	insts := r.data[id]
	if int(instID) >= len(insts) {
		return fmt.Errorf("uavobject: %s: no instance %d", def.Name, instID)
	}
	copy(out, insts[instID])
	return nil
}

// Unpack implements skytalk.ObjectModel. The instance is created if it is
// the next one in sequence. The update callback runs outside the registry
// lock with a private copy of the data; see UpdateFunc for what it may do.
func (r *Registry) Unpack(id uint32, instID uint16, data []byte) error {
	r.mu.Lock()
	if err := r.storeLocked(id, instID, data); err != nil {
		r.mu.Unlock()
		return err
	}
	def := r.defs[id]
	fn := r.onUpdate
	r.mu.Unlock()

	if fn != nil {
		cp := make([]byte, len(data))
		copy(cp, data)
		fn(def, instID, cp)
	}
	return nil
}
