package seed

import (
	"context"
	"errors"

	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	userdomain "github.com/smallbiznis/storefront/internal/user/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var defaultProducts = []catalogdomain.Product{
	{
		ID:          "p1",
		Name:        "Go Course",
		Description: "A complete course on building backends in Go",
		Price:       9.99,
		Metadata:    datatypes.JSONMap{"format": "video"},
	},
	{
		ID:          "p2",
		Name:        "Testing Workshop",
		Description: "Hands-on workshop covering testing strategies",
		Price:       24.99,
		Metadata:    datatypes.JSONMap{"format": "live"},
	},
	{
		ID:          "p3",
		Name:        "Deployment Guide",
		Description: "Step by step production deployment guide",
		Price:       0,
		Metadata:    datatypes.JSONMap{"format": "ebook"},
	},
}

var defaultUser = userdomain.User{
	ID:    "u1",
	Name:  "Demo User",
	Email: "demo@example.com",
}

// EnsureCatalogAndUser seeds the static catalog and the demo user for
// startup bootstrap. Existing rows are left untouched.
func EnsureCatalogAndUser(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, product := range defaultProducts {
			err := tx.Exec(
				`INSERT INTO products (id, name, description, price, metadata)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (id) DO NOTHING`,
				product.ID,
				product.Name,
				product.Description,
				product.Price,
				product.Metadata,
			).Error
			if err != nil {
				return err
			}
		}

		return tx.Exec(
			`INSERT INTO users (id, name, email)
			 VALUES (?, ?, ?)
			 ON CONFLICT (id) DO NOTHING`,
			defaultUser.ID,
			defaultUser.Name,
			defaultUser.Email,
		).Error
	})
}
