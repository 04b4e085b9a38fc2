package constellation

import (
	"log"
	"sync"
)

// Provider supplies constellation tables by order.
type Provider interface {
	Table(order int) (*Table, error)
}

// Builtin generates canonical tables on first use and caches them.
type Builtin struct {
	mu     sync.Mutex
	tables map[int]*Table
}

// NewBuiltin creates a generating provider.
func NewBuiltin() *Builtin {
	return &Builtin{tables: make(map[int]*Table)}
}

// Table returns the canonical table for order.
func (b *Builtin) Table(order int) (*Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.tables[order]; ok {
		return t, nil
	}
	t, err := Generate(order)
	if err != nil {
		return nil, err
	}
	b.tables[order] = t
	return t, nil
}

// AssetDir loads tables from YAML assets in a directory and caches them.
type AssetDir struct {
	dir    string
	mu     sync.Mutex
	tables map[int]*Table
}

// NewAssetDir creates a provider reading assets from dir.
func NewAssetDir(dir string) *AssetDir {
	return &AssetDir{dir: dir, tables: make(map[int]*Table)}
}

// Table loads (once) and returns the table for order.
func (a *AssetDir) Table(order int) (*Table, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.tables[order]; ok {
		return t, nil
	}
	t, err := Load(a.dir, order)
	if err != nil {
		return nil, err
	}
	log.Printf("[constellation] loaded %s from %s", AssetName(order), a.dir)
	a.tables[order] = t
	return t, nil
}
