package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"stockswap/internal/models"
	"stockswap/internal/repositories"
)

// CreateExportRequestInput is the body of a new export request. The sender is the
// authenticated shop.
type CreateExportRequestInput struct {
	ProductID string `json:"productId" validate:"required"`
	ToShopID  string `json:"toShopId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Message   string `json:"message" validate:"omitempty,max=1000"`
}

// ExportRequestService handles the export request lifecycle.
type ExportRequestService struct {
	store     repositories.Store
	validator *ExportValidator
	engine    *TransferEngine
	events    EventPublisher
}

// NewExportRequestService creates a new ExportRequestService. events may be nil.
func NewExportRequestService(store repositories.Store, events EventPublisher) *ExportRequestService {
	return &ExportRequestService{
		store:     store,
		validator: NewExportValidator(store),
		engine:    NewTransferEngine(store),
		events:    events,
	}
}

// Create opens a PENDING request from fromShopID.
func (s *ExportRequestService) Create(ctx context.Context, fromShopID string, input CreateExportRequestInput) (*models.ExportRequest, error) {
	_, direction, err := s.validator.ValidateCreate(ctx, input.ProductID, fromShopID, input.ToShopID, input.Quantity)
	if err != nil {
		return nil, err
	}

	req := &models.ExportRequest{
		ProductID:  input.ProductID,
		FromShopID: fromShopID,
		ToShopID:   input.ToShopID,
		Quantity:   input.Quantity,
		Message:    input.Message,
		Status:     models.ExportStatusPending,
	}
	if err := s.store.ExportRequests().Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create export request: %w", err)
	}
	log.Printf("Export request %s created (%s): %d of product %s from shop %s to shop %s",
		req.ID, direction, req.Quantity, req.ProductID, req.FromShopID, req.ToShopID)

	created, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, EventExportRequested, created)
	return created, nil
}

// FindAll lists every export request, newest first.
func (s *ExportRequestService) FindAll(ctx context.Context, page models.Pagination) (models.Page[models.ExportRequest], error) {
	return s.list(ctx, models.ExportRequestFilter{}, page)
}

// FindMyRequests lists requests the shop sent.
func (s *ExportRequestService) FindMyRequests(ctx context.Context, shopID string, page models.Pagination) (models.Page[models.ExportRequest], error) {
	return s.list(ctx, models.ExportRequestFilter{FromShopID: shopID}, page)
}

// FindRequestsForMe lists requests addressed to the shop.
func (s *ExportRequestService) FindRequestsForMe(ctx context.Context, shopID string, page models.Pagination) (models.Page[models.ExportRequest], error) {
	return s.list(ctx, models.ExportRequestFilter{ToShopID: shopID}, page)
}

// FindByStatus lists requests in the given status where the shop is either party.
func (s *ExportRequestService) FindByStatus(ctx context.Context, shopID string, status models.ExportStatus, page models.Pagination) (models.Page[models.ExportRequest], error) {
	if !status.Valid() {
		return models.Page[models.ExportRequest]{}, BadRequest("Invalid export request status: %s", status)
	}
	return s.list(ctx, models.ExportRequestFilter{ParticipantID: shopID, Status: status}, page)
}

// FindByProduct lists requests for a product; only its owner may look.
func (s *ExportRequestService) FindByProduct(ctx context.Context, productID, shopID string, page models.Pagination) (models.Page[models.ExportRequest], error) {
	product, err := s.store.Products().GetByID(ctx, productID)
	if err != nil {
		return models.Page[models.ExportRequest]{}, notFoundOr(err, "Product not found")
	}
	if product.ShopkeeperID != shopID {
		return models.Page[models.ExportRequest]{}, Forbidden("You can only view export requests for your own products")
	}
	return s.list(ctx, models.ExportRequestFilter{ProductID: productID}, page)
}

// FindOne returns a single joined request.
func (s *ExportRequestService) FindOne(ctx context.Context, id string) (*models.ExportRequest, error) {
	return s.load(ctx, id)
}

// FindOneForShop is FindOne restricted to the two participating shops.
func (s *ExportRequestService) FindOneForShop(ctx context.Context, id, shopID string) (*models.ExportRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FromShopID != shopID && req.ToShopID != shopID {
		return nil, Forbidden("You are not authorized to view this export request")
	}
	return req, nil
}

// AcceptRequest validates and then runs the transfer.
func (s *ExportRequestService) AcceptRequest(ctx context.Context, id, shopID string, message *string) (*models.ExportRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAccept(ctx, req, shopID); err != nil {
		return nil, err
	}

	accepted, err := s.engine.Accept(ctx, req, message)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, EventExportAccepted, accepted)
	return accepted, nil
}

// RejectRequest closes a pending request without moving stock.
func (s *ExportRequestService) RejectRequest(ctx context.Context, id, shopID string, message *string) (*models.ExportRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateReject(ctx, req, shopID); err != nil {
		return nil, err
	}

	err = s.store.ExportRequests().UpdateStatus(ctx, id, models.ExportStatusPending, models.ExportStatusRejected, message)
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, BadRequest("This request is no longer pending").Wrap(err)
		}
		return nil, notFoundOr(err, "Export request not found")
	}
	log.Printf("Export request %s rejected by shop %s", id, shopID)

	rejected, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, EventExportRejected, rejected)
	return rejected, nil
}

// CancelRequest lets the sender withdraw a pending request.
func (s *ExportRequestService) CancelRequest(ctx context.Context, id, shopID string) error {
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateCancel(ctx, req, shopID); err != nil {
		return err
	}
	if err := s.deletePending(ctx, id); err != nil {
		return err
	}
	log.Printf("Export request %s cancelled by shop %s", id, shopID)
	publish(ctx, s.events, EventExportCancelled, req)
	return nil
}

// Remove hard-deletes a pending request owned by the sender.
func (s *ExportRequestService) Remove(ctx context.Context, id, shopID string) error {
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateRemove(ctx, req, shopID); err != nil {
		return err
	}
	if err := s.deletePending(ctx, id); err != nil {
		return err
	}
	log.Printf("Export request %s deleted by shop %s", id, shopID)
	return nil
}

// deletePending deletes only while the request is still PENDING, so a request accepted in
// the meantime is left alone.
func (s *ExportRequestService) deletePending(ctx context.Context, id string) error {
	err := s.store.ExportRequests().Delete(ctx, id, models.ExportStatusPending)
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return BadRequest("This request is no longer pending").Wrap(err)
		}
		return notFoundOr(err, "Export request not found")
	}
	return nil
}

func (s *ExportRequestService) load(ctx context.Context, id string) (*models.ExportRequest, error) {
	req, err := s.store.ExportRequests().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Export request not found")
	}
	return req, nil
}

func (s *ExportRequestService) list(ctx context.Context, filter models.ExportRequestFilter, page models.Pagination) (models.Page[models.ExportRequest], error) {
	reqs, total, err := s.store.ExportRequests().List(ctx, filter, page)
	if err != nil {
		return models.Page[models.ExportRequest]{}, fmt.Errorf("failed to list export requests: %w", err)
	}
	return models.NewPage(reqs, total, page), nil
}
