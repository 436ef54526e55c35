package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"stockswap/internal/models"
	"stockswap/internal/repositories"
)

// TransferEngine performs the accept transition and its inventory move as one unit of work.
type TransferEngine struct {
	store repositories.Store
}

// NewTransferEngine creates a new TransferEngine.
func NewTransferEngine(store repositories.Store) *TransferEngine {
	return &TransferEngine{store: store}
}

// Accept marks req ACCEPTED, moves req.Quantity from the source product to the destination
// shop (merging into its product of the same exact name, or creating one) and returns the
// updated, joined request. On any failure the transaction is rolled back and a BadRequest
// wrapping the cause is returned.
func (e *TransferEngine) Accept(ctx context.Context, req *models.ExportRequest, message *string) (*models.ExportRequest, error) {
	var (
		updated *models.ExportRequest
		dest    string
	)
	err := e.store.RunInTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.ExportRequests().UpdateStatus(ctx, req.ID, models.ExportStatusPending, models.ExportStatusAccepted, message); err != nil {
			if errors.Is(err, repositories.ErrStatusConflict) {
				return BadRequest("This request is no longer pending").Wrap(err)
			}
			return err
		}

		source, err := tx.Products().GetByIDForUpdate(ctx, req.ProductID)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("Product with ID %s not found", req.ProductID))
		}
		if source.Quantity < req.Quantity {
			return BadRequest("Insufficient quantity. Available: %d, Requested: %d", source.Quantity, req.Quantity)
		}
		if err := tx.Products().DecrementQuantity(ctx, source.ID, req.Quantity); err != nil {
			return err
		}

		dest = DestinationShopID(req, source)
		if err := e.credit(ctx, tx, source, dest, req.Quantity); err != nil {
			return err
		}

		updated, err = tx.ExportRequests().GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		log.Printf("Transfer for export request %s rolled back: %v", req.ID, err)
		return nil, BadRequest("Failed to process export request").Wrap(err)
	}

	log.Printf("Export request %s accepted: moved %d of product %s to shop %s",
		req.ID, req.Quantity, req.ProductID, dest)
	return updated, nil
}

// DestinationShopID is the shop that receives stock when req is accepted: whichever
// participant does not own the source product. For a send-own-product request that is the
// receiver; for a request-from-other it is the requester.
func DestinationShopID(req *models.ExportRequest, source *models.Product) string {
	if source.ShopkeeperID == req.ToShopID {
		return req.FromShopID
	}
	return req.ToShopID
}

// credit adds the transferred quantity to the destination shop's like-named product or
// creates it. Names must match exactly; "widget" and "Widget" are different products.
func (e *TransferEngine) credit(ctx context.Context, tx repositories.Store, source *models.Product, dest string, quantity int) error {
	existing, err := tx.Products().FindByOwnerAndName(ctx, dest, source.Name)
	switch {
	case err == nil:
		return tx.Products().IncrementQuantity(ctx, existing.ID, quantity)
	case !errors.Is(err, repositories.ErrNotFound):
		return err
	}

	created := &models.Product{
		Name:         source.Name,
		Description:  source.Description,
		Price:        source.Price,
		Quantity:     quantity,
		ExpiryDate:   source.ExpiryDate,
		Category:     source.Category,
		ShopkeeperID: dest,
	}
	return tx.Products().Create(ctx, created)
}
