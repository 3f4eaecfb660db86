package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	pfirestore "github.com/Teletobimy/landingpage-irunica/internal/platform/firestore"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const (
	brandsCollection = "brands"
	maxBrands        = 100
)

type brandDocument struct {
	Name        string `firestore:"name"`
	ImageURL    string `firestore:"imageUrl"`
	Description string `firestore:"description"`
}

// BrandRepository reads partner brands from the brand catalogue project.
type BrandRepository struct {
	brands *pfirestore.Collection[brandDocument]
}

var _ repositories.BrandRepository = (*BrandRepository)(nil)

// NewBrandRepository binds to the provider of the brand catalogue project.
func NewBrandRepository(provider *pfirestore.Provider) (*BrandRepository, error) {
	if provider == nil {
		return nil, errors.New("brand repository requires firestore provider")
	}
	return &BrandRepository{
		brands: pfirestore.NewCollection[brandDocument](provider, brandsCollection, nil),
	}, nil
}

// List returns up to 100 brands in storage order.
func (r *BrandRepository) List(ctx context.Context) ([]domain.Brand, error) {
	docs, err := r.brands.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Limit(maxBrands)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Brand, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.Brand{
			Name:        doc.Data.Name,
			ImageURL:    doc.Data.ImageURL,
			Description: doc.Data.Description,
		})
	}
	return out, nil
}
