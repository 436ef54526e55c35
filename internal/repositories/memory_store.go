package repositories

import (
	"context"
	"sort"
	"sync"

	"stockswap/internal/models"
)

type memoryData struct {
	products    map[string]models.Product
	shopkeepers map[string]models.Shopkeeper
	requests    map[string]models.ExportRequest
	// seq records insertion order so newest-first listings are stable when timestamps tie.
	seq     map[string]int64
	nextSeq int64
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		products:    make(map[string]models.Product, len(d.products)),
		shopkeepers: make(map[string]models.Shopkeeper, len(d.shopkeepers)),
		requests:    make(map[string]models.ExportRequest, len(d.requests)),
		seq:         make(map[string]int64, len(d.seq)),
		nextSeq:     d.nextSeq,
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.shopkeepers {
		c.shopkeepers[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = v
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

func (d *memoryData) stamp(id string) {
	d.nextSeq++
	d.seq[id] = d.nextSeq
}

// MemoryStore is an in-memory implementation of Store. A transaction holds the write lock
// for its whole duration and restores a snapshot if it fails.
type MemoryStore struct {
	mu   *sync.RWMutex
	data *memoryData
	inTx bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.RWMutex{},
		data: &memoryData{
			products:    make(map[string]models.Product),
			shopkeepers: make(map[string]models.Shopkeeper),
			requests:    make(map[string]models.ExportRequest),
			seq:         make(map[string]int64),
		},
	}
}

func (s *MemoryStore) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Products() ProductRepository {
	return &memoryProductRepository{s: s}
}

func (s *MemoryStore) Shopkeepers() ShopkeeperRepository {
	return &memoryShopkeeperRepository{s: s}
}

func (s *MemoryStore) ExportRequests() ExportRequestRepository {
	return &memoryExportRequestRepository{s: s}
}

// RunInTransaction runs fn while holding the store's write lock.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemoryStore{mu: s.mu, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// newestFirst sorts ids by descending insertion order.
func (s *MemoryStore) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return s.data.seq[ids[i]] > s.data.seq[ids[j]]
	})
}

func paginate[T any](items []T, page models.Pagination) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
