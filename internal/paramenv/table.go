package paramenv

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Table interns environment contents. Structurally equal contents always map
// to one handle, including under concurrent callers.
type Table struct {
	mu    sync.RWMutex
	envs  []Data // index 0 reserved for NoParamEnv
	index map[string]ParamEnv
}

// NewTable returns a table holding only EmptyParamEnv.
func NewTable() *Table {
	t := &Table{
		envs:  make([]Data, 1, 16),
		index: make(map[string]ParamEnv, 16),
	}
	if env := t.Intern(Data{}); env != EmptyParamEnv {
		panic(fmt.Errorf("paramenv: empty environment interned as %d", env))
	}
	return t
}

// Intern returns the canonical handle for d. The table keeps its own copy.
func (t *Table) Intern(d Data) ParamEnv {
	key := d.key()

	t.mu.RLock()
	env, ok := t.index[key]
	t.mu.RUnlock()
	if ok {
		return env
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if env, ok := t.index[key]; ok {
		return env
	}
	value, err := safecast.Conv[uint32](len(t.envs))
	if err != nil {
		panic(fmt.Errorf("paramenv table overflow: %w", err))
	}
	env = ParamEnv(value)
	t.envs = append(t.envs, d.Clone())
	t.index[key] = env
	return env
}

// Lookup returns a copy of the content behind env.
func (t *Table) Lookup(env ParamEnv) (Data, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !env.IsValid() || int(env) >= len(t.envs) {
		return Data{}, false
	}
	return t.envs[env].Clone(), true
}

// MustLookup panics when env was not issued by this table.
func (t *Table) MustLookup(env ParamEnv) Data {
	d, ok := t.Lookup(env)
	if !ok {
		panic(fmt.Errorf("paramenv: invalid handle %d", env))
	}
	return d
}

// Len reports the number of interned environments, EmptyParamEnv included.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.envs) - 1
}

// Snapshot returns every interned content; element i belongs to handle i+1.
func (t *Table) Snapshot() []Data {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Data, 0, len(t.envs)-1)
	for _, d := range t.envs[1:] {
		out = append(out, d.Clone())
	}
	return out
}
