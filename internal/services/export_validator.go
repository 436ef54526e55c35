package services

import (
	"context"
	"errors"
	"fmt"

	"stockswap/internal/models"
	"stockswap/internal/repositories"
)

// ExportDirection is which of the two create scenarios a request falls into.
type ExportDirection int

const (
	// DirectionSendOwn: the sender owns the product and pushes it to another shop.
	DirectionSendOwn ExportDirection = iota + 1
	// DirectionRequestFromOther: the sender asks the product's owner to ship it to them.
	DirectionRequestFromOther
)

func (d ExportDirection) String() string {
	switch d {
	case DirectionSendOwn:
		return "send-own-product"
	case DirectionRequestFromOther:
		return "request-from-other"
	}
	return "unknown"
}

// DirectionFor picks the create scenario from who owns the product.
func DirectionFor(product *models.Product, fromShopID string) ExportDirection {
	if product.ShopkeeperID == fromShopID {
		return DirectionSendOwn
	}
	return DirectionRequestFromOther
}

// ExportValidator decides whether a requested transition is legal. It only reads.
type ExportValidator struct {
	store repositories.Store
}

// NewExportValidator creates a new ExportValidator.
func NewExportValidator(store repositories.Store) *ExportValidator {
	return &ExportValidator{store: store}
}

// notFoundOr maps repositories.ErrNotFound to a NotFound ServiceError and wraps anything
// else as an internal failure.
func notFoundOr(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return NotFound("%s", message).Wrap(err)
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ValidateCreate checks a new request and returns the product and the chosen direction.
func (v *ExportValidator) ValidateCreate(ctx context.Context, productID, fromShopID, toShopID string, quantity int) (*models.Product, ExportDirection, error) {
	if quantity <= 0 {
		return nil, 0, BadRequest("Quantity must be a positive number")
	}

	product, err := v.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, 0, notFoundOr(err, "Product not found")
	}

	direction := DirectionFor(product, fromShopID)
	switch direction {
	case DirectionSendOwn:
		if toShopID == fromShopID {
			return nil, 0, Forbidden("You cannot send products to your own shop")
		}
	case DirectionRequestFromOther:
		if toShopID != product.ShopkeeperID {
			return nil, 0, Forbidden("When requesting products from other shops, the target shop must be the product owner's shop")
		}
	}

	if quantity > product.Quantity {
		return nil, 0, BadRequest("Insufficient quantity. Available: %d, Requested: %d", product.Quantity, quantity)
	}

	if _, err := v.store.Shopkeepers().GetByID(ctx, toShopID); err != nil {
		return nil, 0, notFoundOr(err, "Target shop not found")
	}

	_, err = v.store.ExportRequests().FindPending(ctx, productID, fromShopID, toShopID)
	switch {
	case err == nil:
		return nil, 0, BadRequest("There is already a pending export request for this product to the same shop")
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, 0, fmt.Errorf("failed to check for duplicate export request: %w", err)
	}

	return product, direction, nil
}

// ValidateAccept checks that actor may accept req and that stock still covers it.
func (v *ExportValidator) ValidateAccept(ctx context.Context, req *models.ExportRequest, actorShopID string) error {
	if err := v.checkReceiver(req, actorShopID, "accept"); err != nil {
		return err
	}
	product, err := v.store.Products().GetByID(ctx, req.ProductID)
	if err != nil {
		return notFoundOr(err, "Product not found")
	}
	if product.Quantity < req.Quantity {
		return BadRequest("Insufficient quantity. Available: %d, Requested: %d", product.Quantity, req.Quantity)
	}
	return nil
}

// ValidateReject checks that actor may reject req.
func (v *ExportValidator) ValidateReject(_ context.Context, req *models.ExportRequest, actorShopID string) error {
	return v.checkReceiver(req, actorShopID, "reject")
}

// ValidateCancel checks that actor may withdraw req.
func (v *ExportValidator) ValidateCancel(_ context.Context, req *models.ExportRequest, actorShopID string) error {
	if req == nil {
		return NotFound("Export request not found")
	}
	if req.FromShopID != actorShopID {
		return Forbidden("You can only cancel your own requests")
	}
	if req.Status != models.ExportStatusPending {
		return BadRequest("This request is no longer pending")
	}
	return nil
}

// ValidateRemove is the hard-delete check; same rules as cancel.
func (v *ExportValidator) ValidateRemove(_ context.Context, req *models.ExportRequest, actorShopID string) error {
	if req == nil {
		return NotFound("Export request not found")
	}
	if req.FromShopID != actorShopID {
		return Forbidden("You can only delete your own export requests")
	}
	if req.Status != models.ExportStatusPending {
		return BadRequest("You can only delete pending export requests")
	}
	return nil
}

func (v *ExportValidator) checkReceiver(req *models.ExportRequest, actorShopID, verb string) error {
	if req == nil {
		return NotFound("Export request not found")
	}
	if req.ToShopID != actorShopID {
		return Forbidden("You can only %s requests directed to your shop", verb)
	}
	if req.Status != models.ExportStatusPending {
		return BadRequest("This request is no longer pending")
	}
	return nil
}
