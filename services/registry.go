// file: services/registry.go
package services

import (
	"sync"
	"time"
)

type InstanceState string

const (
	StateStarting InstanceState = "starting"
	StateRunning  InstanceState = "running"
	StateStopping InstanceState = "stopping"
	// StateStuck marks an instance whose kill never landed. It is kept on
	// record for manual cleanup instead of being silently dropped.
	StateStuck InstanceState = "stuck"
)

// Instance is one live (or dying) challenge container bound to exactly one
// team and one problem.
type Instance struct {
	TeamID    uint32
	ProblemID uint32
	Handle    string
	Port      int
	Flag      string
	StartedAt time.Time
	State     InstanceState
}

type instanceKey struct {
	teamID    uint32
	problemID uint32
}

// Registry is the authoritative record of active instances. Only the
// orchestration engine mutates it; everyone else reads copies.
type Registry struct {
	mu     sync.RWMutex
	active map[instanceKey]*Instance
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[instanceKey]*Instance)}
}

// Insert records a new instance. It fails with ErrAlreadyRunning when any
// entry exists for the pair, whatever its state.
func (r *Registry) Insert(inst Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := instanceKey{inst.TeamID, inst.ProblemID}
	if _, ok := r.active[key]; ok {
		return ErrAlreadyRunning
	}
	r.active[key] = &inst
	return nil
}

// Get returns a copy of the instance for the pair, if present.
func (r *Registry) Get(teamID, problemID uint32) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.active[instanceKey{teamID, problemID}]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// SetState transitions the entry for the pair. Missing entries are ignored.
func (r *Registry) SetState(teamID, problemID uint32, state InstanceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.active[instanceKey{teamID, problemID}]; ok {
		inst.State = state
	}
}

// SetHandle stores the engine-assigned handle once the container exists.
func (r *Registry) SetHandle(teamID, problemID uint32, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.active[instanceKey{teamID, problemID}]; ok {
		inst.Handle = handle
	}
}

// Remove purges the entry for the pair.
func (r *Registry) Remove(teamID, problemID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, instanceKey{teamID, problemID})
}

// CountActive counts a team's Starting and Running instances, the ones that
// score against the per-team container limit.
func (r *Registry) CountActive(teamID uint32) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for key, inst := range r.active {
		if key.teamID == teamID && (inst.State == StateStarting || inst.State == StateRunning) {
			n++
		}
	}
	return n
}

// ListTeam returns copies of all of a team's entries.
func (r *Registry) ListTeam(teamID uint32) []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Instance
	for key, inst := range r.active {
		if key.teamID == teamID {
			out = append(out, *inst)
		}
	}
	return out
}

// Expired returns copies of Running instances started more than ttl ago.
func (r *Registry) Expired(ttl time.Duration) []Instance {
	cutoff := time.Now().Add(-ttl)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Instance
	for _, inst := range r.active {
		if inst.State == StateRunning && inst.StartedAt.Before(cutoff) {
			out = append(out, *inst)
		}
	}
	return out
}

// Len returns the total number of entries, any state.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
