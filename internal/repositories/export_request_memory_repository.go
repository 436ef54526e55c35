package repositories

import (
	"context"
	"fmt"
	"time"

	"stockswap/internal/models"

	"github.com/google/uuid"
)

// memoryExportRequestRepository is the in-memory implementation of ExportRequestRepository.
type memoryExportRequestRepository struct {
	s *MemoryStore
}

// joined returns a copy of req with product, product owner and shop summaries attached.
func (r *memoryExportRequestRepository) joined(req models.ExportRequest) models.ExportRequest {
	if p, ok := r.s.data.products[req.ProductID]; ok {
		if owner, ok := r.s.data.shopkeepers[p.ShopkeeperID]; ok {
			p.Shopkeeper = owner.Summary()
		}
		req.Product = &p
	}
	if from, ok := r.s.data.shopkeepers[req.FromShopID]; ok {
		req.FromShop = from.Summary()
	}
	if to, ok := r.s.data.shopkeepers[req.ToShopID]; ok {
		req.ToShop = to.Summary()
	}
	return req
}

func (r *memoryExportRequestRepository) GetByID(_ context.Context, id string) (*models.ExportRequest, error) {
	defer r.s.rlock()()

	req, ok := r.s.data.requests[id]
	if !ok {
		return nil, fmt.Errorf("export request with ID %s: %w", id, ErrNotFound)
	}
	req = r.joined(req)
	return &req, nil
}

func (r *memoryExportRequestRepository) Create(_ context.Context, req *models.ExportRequest) error {
	defer r.s.lock()()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = models.ExportStatusPending
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	stored := *req
	stored.Product, stored.FromShop, stored.ToShop = nil, nil, nil
	r.s.data.requests[req.ID] = stored
	r.s.data.stamp(req.ID)
	return nil
}

func (r *memoryExportRequestRepository) UpdateStatus(_ context.Context, id string, from, to models.ExportStatus, message *string) error {
	defer r.s.lock()()

	req, ok := r.s.data.requests[id]
	if !ok {
		return fmt.Errorf("export request with ID %s: %w", id, ErrNotFound)
	}
	if req.Status != from {
		return fmt.Errorf("export request %s is not %s: %w", id, from, ErrStatusConflict)
	}
	req.Status = to
	if message != nil {
		req.Message = *message
	}
	req.UpdatedAt = time.Now()
	r.s.data.requests[id] = req
	return nil
}

func (r *memoryExportRequestRepository) Delete(_ context.Context, id string, status models.ExportStatus) error {
	defer r.s.lock()()

	req, ok := r.s.data.requests[id]
	if !ok {
		return fmt.Errorf("export request with ID %s: %w", id, ErrNotFound)
	}
	if req.Status != status {
		return fmt.Errorf("export request %s is not %s: %w", id, status, ErrStatusConflict)
	}
	delete(r.s.data.requests, id)
	delete(r.s.data.seq, id)
	return nil
}

func matchesExportFilter(req models.ExportRequest, f models.ExportRequestFilter) bool {
	switch {
	case f.ProductID != "" && req.ProductID != f.ProductID:
		return false
	case f.FromShopID != "" && req.FromShopID != f.FromShopID:
		return false
	case f.ToShopID != "" && req.ToShopID != f.ToShopID:
		return false
	case f.ParticipantID != "" && req.FromShopID != f.ParticipantID && req.ToShopID != f.ParticipantID:
		return false
	case f.Status != "" && req.Status != f.Status:
		return false
	}
	return true
}

func (r *memoryExportRequestRepository) List(_ context.Context, filter models.ExportRequestFilter, page models.Pagination) ([]models.ExportRequest, int64, error) {
	defer r.s.rlock()()

	ids := make([]string, 0, len(r.s.data.requests))
	for id, req := range r.s.data.requests {
		if matchesExportFilter(req, filter) {
			ids = append(ids, id)
		}
	}
	r.s.newestFirst(ids)

	reqs := make([]models.ExportRequest, 0, len(ids))
	for _, id := range paginate(ids, page) {
		reqs = append(reqs, r.joined(r.s.data.requests[id]))
	}
	return reqs, int64(len(ids)), nil
}

func (r *memoryExportRequestRepository) FindPending(_ context.Context, productID, fromShopID, toShopID string) (*models.ExportRequest, error) {
	defer r.s.rlock()()

	for _, req := range r.s.data.requests {
		if req.Status == models.ExportStatusPending &&
			req.ProductID == productID && req.FromShopID == fromShopID && req.ToShopID == toShopID {
			req := req
			return &req, nil
		}
	}
	return nil, fmt.Errorf("pending export request: %w", ErrNotFound)
}

func (r *memoryExportRequestRepository) ListPendingForProducts(_ context.Context, productIDs []string) ([]models.ExportRequest, error) {
	defer r.s.rlock()()

	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	var reqs []models.ExportRequest
	for _, req := range r.s.data.requests {
		if _, ok := wanted[req.ProductID]; ok && req.Status == models.ExportStatusPending {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}
