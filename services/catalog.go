package services

import (
	"context"
	"strings"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogService manages products. Callers are expected to have passed the
// admin gate before any write.
type CatalogService struct {
	products store.ProductStore
}

func NewCatalogService(products store.ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

func parseObjectID(id, what string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, utils.Validation("invalid %s ID", what)
	}
	return objID, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, utils.Internal(err, "Failed to fetch products")
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	objID, err := parseObjectID(id, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetProduct(ctx, objID)
	if err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		Image:       strings.TrimSpace(req.Image),
		Description: req.Description,
		Featured:    req.Featured,
	}
	if product.Name == "" || product.Image == "" {
		return nil, utils.Validation("name, price and image are required")
	}
	if !product.Price.IsPositive() {
		return nil, utils.Validation("price must be greater than zero")
	}
	if product.Category == "" {
		product.Category = models.DefaultCategory
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, utils.Internal(err, "Failed to create product")
	}
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	objID, err := parseObjectID(id, "product")
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, utils.Validation("no fields to update")
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, utils.Validation("name cannot be empty")
	}
	if update.Image != nil && strings.TrimSpace(*update.Image) == "" {
		return nil, utils.Validation("image cannot be empty")
	}
	if update.Price != nil && !update.Price.IsPositive() {
		return nil, utils.Validation("price must be greater than zero")
	}
	if update.Category != nil && strings.TrimSpace(*update.Category) == "" {
		category := models.DefaultCategory
		update.Category = &category
	}

	product, err := s.products.UpdateProduct(ctx, objID, update)
	if err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	objID, err := parseObjectID(id, "product")
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, objID); err != nil {
		return storeError(err, "product")
	}
	return nil
}

// Seed creates every product in reqs, stopping at the first invalid entry.
func (s *CatalogService) Seed(ctx context.Context, reqs []models.ProductRequest) (int, error) {
	for i, req := range reqs {
		if _, err := s.CreateProduct(ctx, req); err != nil {
			return i, err
		}
	}
	return len(reqs), nil
}
