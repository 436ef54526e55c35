package repositories

import (
	"context"

	"gorm.io/gorm"
)

// GORMStore is a Store backed by a GORM connection (PostgreSQL or SQLite).
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new instance of GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Products() ProductRepository {
	return NewGORMProductRepository(s.db)
}

func (s *GORMStore) Shopkeepers() ShopkeeperRepository {
	return NewGORMShopkeeperRepository(s.db)
}

func (s *GORMStore) ExportRequests() ExportRequestRepository {
	return NewGORMExportRequestRepository(s.db)
}

// RunInTransaction runs fn inside a database transaction. Nested calls become savepoints.
func (s *GORMStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx})
	})
}
