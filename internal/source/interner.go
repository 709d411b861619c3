package source

import (
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/text/cases"
)

// StringID identifies an interned identifier.
type StringID uint32

const NoStringID StringID = 0

// Folding selects how identifier spellings map to identities.
type Folding uint8

const (
	// FoldNone keeps identifiers case-sensitive (SystemVerilog).
	FoldNone Folding = iota
	// FoldCase treats identifiers differing only in case as equal (VHDL).
	FoldCase
)

func (f Folding) String() string {
	switch f {
	case FoldNone:
		return "exact"
	case FoldCase:
		return "fold"
	default:
		return "unknown"
	}
}

// Interner maps identifier text to compact StringIDs. Safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	folding Folding
	caser   cases.Caser
	byID    []string            // индекс -> строка (byID[0] = "" для NoStringID)
	index   map[string]StringID // ключ (после свёртки) -> ID
}

// NewInterner returns a case-sensitive interner.
func NewInterner() *Interner {
	return NewFoldingInterner(FoldNone)
}

// NewFoldingInterner returns an interner using the given folding policy.
// With FoldCase the first spelling seen is kept for display.
func NewFoldingInterner(f Folding) *Interner {
	return &Interner{
		folding: f,
		caser:   cases.Fold(),
		byID:    []string{""},
		index:   map[string]StringID{"": 0},
	}
}

// Folding reports the interner's folding policy.
func (i *Interner) Folding() Folding { return i.folding }

// key must be called with i.mu held, the caser is stateful.
func (i *Interner) key(s string) string {
	if i.folding == FoldCase {
		return i.caser.String(s)
	}
	return s
}

// Intern вставляет строку и возвращает её ID.
// Если строка (или её свёрнутая форма) уже есть, возвращает существующий ID.
func (i *Interner) Intern(s string) StringID {
	if i.folding == FoldNone {
		i.mu.RLock()
		id, ok := i.index[s]
		i.mu.RUnlock()
		if ok {
			return id
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	k := i.key(s)
	if id, ok := i.index[k]; ok {
		return id
	}

	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	// Собственная копия, чтобы не зависеть от исходного буфера.
	cpy := string([]byte(s))
	id := StringID(n)
	i.byID = append(i.byID, cpy)
	i.index[string([]byte(k))] = id
	return id
}

// Find returns the ID of s without interning it.
func (i *Interner) Find(s string) (StringID, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	id, ok := i.index[i.key(s)]
	return id, ok
}

// Lookup возвращает строку по ID.
func (i *Interner) Lookup(id StringID) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup returns the spelling for id and panics on an unknown ID.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has reports whether id was issued by this interner.
func (i *Interner) Has(id StringID) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return int(id) < len(i.byID)
}

// Len returns the number of strings, NoStringID included. Never below 1.
func (i *Interner) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.byID)
}

// Snapshot returns a copy of all stored spellings indexed by ID.
func (i *Interner) Snapshot() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Clone(i.byID)
}
