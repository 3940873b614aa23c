package internal

import "sync"

type Batcher struct {
	mu sync.Mutex

	// each nested batch increases the depth by 1
	// if depth > 0, render requests are held until the outermost batch is complete
	depth int

	deferred []*Instance
}

func NewBatcher() *Batcher {
	return &Batcher{}
}

func (b *Batcher) IsBatching() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth > 0
}

// Defer holds the instance's render request if a batch is open.
func (b *Batcher) Defer(inst *Instance) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.depth == 0 {
		return false
	}

	b.deferred = append(b.deferred, inst)
	return true
}

func (b *Batcher) Batch(fn func(), onComplete func([]*Instance)) {
	b.mu.Lock()
	b.depth++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		var deferred []*Instance
		if b.depth == 0 {
			deferred, b.deferred = b.deferred, nil
		}
		b.mu.Unlock()

		if len(deferred) > 0 && onComplete != nil {
			onComplete(deferred)
		}
	}()

	fn()
}
