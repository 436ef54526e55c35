package repositories_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"stockswap/internal/config"
	"stockswap/internal/database"
	"stockswap/internal/models"
	"stockswap/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newSQLiteStore(t *testing.T) repositories.Store {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.New().String() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return repositories.NewGORMStore(db)
}

func newMemoryStore(t *testing.T) repositories.Store {
	return repositories.NewMemoryStore()
}

// forEachStore runs the same contract against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store repositories.Store)) {
	for name, open := range map[string]func(*testing.T) repositories.Store{
		"gorm-sqlite": newSQLiteStore,
		"memory":      newMemoryStore,
	} {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func seedShop(t *testing.T, store repositories.Store, email, shopName string) *models.Shopkeeper {
	t.Helper()
	sk := &models.Shopkeeper{Email: email, Password: "hash", Name: "Owner", ShopName: shopName, Address: "Main St"}
	require.NoError(t, store.Shopkeepers().Create(context.Background(), sk))
	return sk
}

func seedProduct(t *testing.T, store repositories.Store, owner, name string, quantity int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:         name,
		Description:  "A " + name,
		Price:        decimal.RequireFromString("9.99"),
		Quantity:     quantity,
		Category:     "General",
		ShopkeeperID: owner,
	}
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

func TestProductQuantityAdjustments(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		shop := seedShop(t, store, "a@example.com", "Alpha")
		p := seedProduct(t, store, shop.ID, "Widget", 10)

		require.NoError(t, store.Products().DecrementQuantity(ctx, p.ID, 4))
		got, err := store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Quantity)

		require.NoError(t, store.Products().DecrementQuantity(ctx, p.ID, 50))
		got, err = store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quantity, "decrement floors at zero")

		require.NoError(t, store.Products().IncrementQuantity(ctx, p.ID, 7))
		got, err = store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Quantity)
		require.NotNil(t, got.Shopkeeper)
		assert.Equal(t, "Alpha", got.Shopkeeper.ShopName)

		err = store.Products().IncrementQuantity(ctx, "missing", 1)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProductFindByOwnerAndName(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		a := seedShop(t, store, "a@example.com", "Alpha")
		b := seedShop(t, store, "b@example.com", "Beta")
		widget := seedProduct(t, store, a.ID, "Widget", 1)
		seedProduct(t, store, b.ID, "Widget", 1)

		found, err := store.Products().FindByOwnerAndName(ctx, a.ID, "Widget")
		require.NoError(t, err)
		assert.Equal(t, widget.ID, found.ID)

		_, err = store.Products().FindByOwnerAndName(ctx, a.ID, "widget")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		_, err = store.Products().FindByOwnerAndName(ctx, a.ID, "Widget ")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProductListAndSearch(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		a := seedShop(t, store, "a@example.com", "Alpha")
		b := seedShop(t, store, "b@example.com", "Beta")
		seedProduct(t, store, a.ID, "Fresh Milk", 3)
		seedProduct(t, store, a.ID, "Bread", 0)
		seedProduct(t, store, b.ID, "Oat MILK", 2)

		all, total, err := store.Products().List(ctx, models.ProductFilter{}, models.Pagination{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, all, 2)

		mine, total, err := store.Products().List(ctx, models.ProductFilter{ShopkeeperID: a.ID}, models.Pagination{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, mine, 2)

		milk, total, err := store.Products().List(ctx, models.ProductFilter{Query: "milk"}, models.Pagination{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, milk, 2)

		inStock, _, err := store.Products().List(ctx, models.ProductFilter{ShopkeeperID: a.ID, InStockOnly: true}, models.Pagination{})
		require.NoError(t, err)
		require.Len(t, inStock, 1)
		assert.Equal(t, "Fresh Milk", inStock[0].Name)
	})
}

func TestProductUpdateAndDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		a := seedShop(t, store, "a@example.com", "Alpha")
		p := seedProduct(t, store, a.ID, "Widget", 5)

		p.Name = "Gadget"
		p.Price = decimal.RequireFromString("1.25")
		require.NoError(t, store.Products().Update(ctx, p))
		got, err := store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gadget", got.Name)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("1.25")))

		require.NoError(t, store.Products().Delete(ctx, p.ID))
		_, err = store.Products().GetByID(ctx, p.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, store.Products().Delete(ctx, p.ID), repositories.ErrNotFound)
	})
}

func TestExportRequestStatusCompareAndSet(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		a := seedShop(t, store, "a@example.com", "Alpha")
		b := seedShop(t, store, "b@example.com", "Beta")
		p := seedProduct(t, store, a.ID, "Widget", 5)

		req := &models.ExportRequest{ProductID: p.ID, FromShopID: b.ID, ToShopID: a.ID, Quantity: 2, Message: "please"}
		require.NoError(t, store.ExportRequests().Create(ctx, req))
		assert.Equal(t, models.ExportStatusPending, req.Status)

		got, err := store.ExportRequests().GetByID(ctx, req.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Product)
		require.NotNil(t, got.Product.Shopkeeper)
		assert.Equal(t, "Alpha", got.Product.Shopkeeper.ShopName)
		assert.Equal(t, "Beta", got.FromShop.ShopName)
		assert.Equal(t, "Alpha", got.ToShop.ShopName)

		pending, err := store.ExportRequests().FindPending(ctx, p.ID, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, pending.ID)
		_, err = store.ExportRequests().FindPending(ctx, p.ID, a.ID, b.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		// message untouched when nil
		require.NoError(t, store.ExportRequests().UpdateStatus(ctx, req.ID, models.ExportStatusPending, models.ExportStatusAccepted, nil))
		got, err = store.ExportRequests().GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ExportStatusAccepted, got.Status)
		assert.Equal(t, "please", got.Message)

		err = store.ExportRequests().UpdateStatus(ctx, req.ID, models.ExportStatusPending, models.ExportStatusRejected, nil)
		assert.ErrorIs(t, err, repositories.ErrStatusConflict)
		err = store.ExportRequests().UpdateStatus(ctx, "missing", models.ExportStatusPending, models.ExportStatusRejected, nil)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		err = store.ExportRequests().Delete(ctx, req.ID, models.ExportStatusPending)
		assert.ErrorIs(t, err, repositories.ErrStatusConflict)
		_, err = store.ExportRequests().GetByID(ctx, req.ID)
		assert.NoError(t, err, "accepted request survives a pending-only delete")

		pendingList, err := store.ExportRequests().ListPendingForProducts(ctx, []string{p.ID})
		require.NoError(t, err)
		assert.Empty(t, pendingList)
	})
}

func TestExportRequestListFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		a := seedShop(t, store, "a@example.com", "Alpha")
		b := seedShop(t, store, "b@example.com", "Beta")
		c := seedShop(t, store, "c@example.com", "Gamma")
		p := seedProduct(t, store, a.ID, "Widget", 50)

		var ids []string
		for _, from := range []string{b.ID, c.ID, b.ID} {
			req := &models.ExportRequest{ProductID: p.ID, FromShopID: from, ToShopID: a.ID, Quantity: 1}
			require.NoError(t, store.ExportRequests().Create(ctx, req))
			ids = append(ids, req.ID)
			time.Sleep(5 * time.Millisecond)
		}
		require.NoError(t, store.ExportRequests().UpdateStatus(ctx, ids[2], models.ExportStatusPending, models.ExportStatusRejected, nil))

		fromB, total, err := store.ExportRequests().List(ctx, models.ExportRequestFilter{FromShopID: b.ID}, models.Pagination{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, fromB, 2)
		assert.Equal(t, ids[2], fromB[0].ID, "newest first")

		rejected, _, err := store.ExportRequests().List(ctx, models.ExportRequestFilter{ParticipantID: a.ID, Status: models.ExportStatusRejected}, models.Pagination{})
		require.NoError(t, err)
		require.Len(t, rejected, 1)
		assert.Equal(t, ids[2], rejected[0].ID)

		pending, err := store.ExportRequests().ListPendingForProducts(ctx, []string{p.ID})
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		require.NoError(t, store.ExportRequests().Delete(ctx, ids[0], models.ExportStatusPending))
		_, err = store.ExportRequests().GetByID(ctx, ids[0])
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, store.ExportRequests().Delete(ctx, ids[0], models.ExportStatusPending), repositories.ErrNotFound)
	})
}

func TestRunInTransactionRollsBack(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		a := seedShop(t, store, "a@example.com", "Alpha")
		p := seedProduct(t, store, a.ID, "Widget", 10)
		boom := errors.New("boom")

		var created *models.Product
		err := store.RunInTransaction(ctx, func(tx repositories.Store) error {
			if err := tx.Products().DecrementQuantity(ctx, p.ID, 3); err != nil {
				return err
			}
			created = &models.Product{Name: "Copy", Price: p.Price, Quantity: 3, ShopkeeperID: a.ID}
			if err := tx.Products().Create(ctx, created); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity)
		_, err = store.Products().GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		err = store.RunInTransaction(ctx, func(tx repositories.Store) error {
			return tx.Products().DecrementQuantity(ctx, p.ID, 3)
		})
		require.NoError(t, err)
		got, err = store.Products().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Quantity)
	})
}

func TestShopkeepers(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repositories.Store) {
		ctx := context.Background()
		b := seedShop(t, store, "b@example.com", "Beta")
		seedShop(t, store, "a@example.com", "Alpha")

		dup := &models.Shopkeeper{Email: "b@example.com", Password: "x", Name: "x", ShopName: "x", Address: "x"}
		assert.Error(t, store.Shopkeepers().Create(ctx, dup))

		got, err := store.Shopkeepers().GetByEmail(ctx, "b@example.com")
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
		_, err = store.Shopkeepers().GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		got.Phone = "555-0100"
		require.NoError(t, store.Shopkeepers().Update(ctx, got))
		got, err = store.Shopkeepers().GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "555-0100", got.Phone)

		list, total, err := store.Shopkeepers().List(ctx, models.Pagination{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, list, 2)
		assert.Equal(t, "Alpha", list[0].ShopName)
	})
}

func TestMemoryProductExpiryWindow(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	a := seedShop(t, store, "a@example.com", "Alpha")

	now := time.Now()
	at := func(days int) *time.Time { d := now.AddDate(0, 0, days); return &d }
	for _, p := range []models.Product{
		{Name: "soon", Quantity: 1, ExpiryDate: at(2)},
		{Name: "sooner", Quantity: 1, ExpiryDate: at(1)},
		{Name: "empty", Quantity: 0, ExpiryDate: at(1)},
		{Name: "later", Quantity: 1, ExpiryDate: at(30)},
		{Name: "expired", Quantity: 1, ExpiryDate: at(-1)},
		{Name: "no date", Quantity: 1},
	} {
		p := p
		p.ShopkeeperID = a.ID
		p.Price = decimal.NewFromInt(1)
		require.NoError(t, store.Products().Create(ctx, &p))
	}

	from, until := now, now.AddDate(0, 0, 7)
	got, total, err := store.Products().List(ctx, models.ProductFilter{ExpiresFrom: &from, ExpiresUntil: &until, InStockOnly: true}, models.Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "sooner", got[0].Name)
	assert.Equal(t, "soon", got[1].Name)
}
