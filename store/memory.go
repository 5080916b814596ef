package store

import (
	"context"
	"sync"
)

// MemoryProvider keeps documents in a map. Nothing survives the process.
type MemoryProvider struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
	loadErr error
	saves   int
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: map[string][]byte{}}
}

func (p *MemoryProvider) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	v, ok := p.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (p *MemoryProvider) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.data[key] = append([]byte(nil), data...)
	p.saves++
	return nil
}

// FailSaves makes every following Save return err. A nil err clears it.
func (p *MemoryProvider) FailSaves(err error) {
	p.mu.Lock()
	p.saveErr = err
	p.mu.Unlock()
}

// FailLoads makes every following Load return err. A nil err clears it.
func (p *MemoryProvider) FailLoads(err error) {
	p.mu.Lock()
	p.loadErr = err
	p.mu.Unlock()
}

// Saves returns how many writes succeeded.
func (p *MemoryProvider) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
