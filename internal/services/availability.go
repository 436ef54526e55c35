package services

import (
	"context"
	"fmt"

	"stockswap/internal/models"
	"stockswap/internal/repositories"
)

// Available is on-hand stock minus pending reservations, never below zero.
func Available(onHand, pending int) int {
	if onHand-pending < 0 {
		return 0
	}
	return onHand - pending
}

// PendingTotals sums request quantities per product id.
func PendingTotals(reqs []models.ExportRequest) map[string]int {
	totals := make(map[string]int, len(reqs))
	for _, r := range reqs {
		if r.Status == models.ExportStatusPending {
			totals[r.ProductID] += r.Quantity
		}
	}
	return totals
}

// AvailabilityCalculator derives availableQuantity for products at read time.
// Nothing is cached: pending totals change with every create/accept/reject/cancel.
type AvailabilityCalculator struct {
	requests repositories.ExportRequestRepository
}

// NewAvailabilityCalculator creates a new AvailabilityCalculator.
func NewAvailabilityCalculator(requests repositories.ExportRequestRepository) *AvailabilityCalculator {
	return &AvailabilityCalculator{requests: requests}
}

// Annotate sets AvailableQuantity on every product in place.
func (c *AvailabilityCalculator) Annotate(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	pending, err := c.requests.ListPendingForProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load pending export requests: %w", err)
	}
	totals := PendingTotals(pending)
	for i := range products {
		avail := Available(products[i].Quantity, totals[products[i].ID])
		products[i].AvailableQuantity = &avail
	}
	return nil
}

// AnnotateOne is Annotate for a single product.
func (c *AvailabilityCalculator) AnnotateOne(ctx context.Context, product *models.Product) error {
	list := []models.Product{*product}
	if err := c.Annotate(ctx, list); err != nil {
		return err
	}
	product.AvailableQuantity = list[0].AvailableQuantity
	return nil
}
