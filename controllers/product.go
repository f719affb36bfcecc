package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// ProductController handles product-related requests
type ProductController struct {
	catalog *services.CatalogService
	timeout time.Duration
}

// NewProductController creates a new ProductController
func NewProductController(catalog *services.CatalogService, timeout time.Duration) *ProductController {
	return &ProductController{catalog: catalog, timeout: timeout}
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.timeout)
	defer cancel()
	product, err := pc.catalog.CreateProduct(ctx, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Product added",
		"id":      product.ID.Hex(),
	})
}

// GetProducts retrieves the catalog, newest first. Optional filters: category, featured.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ProductFilter{Category: query.Get("category")}
	if raw := query.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, r, utils.Validation("featured must be true or false"))
			return
		}
		filter.Featured = &featured
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.timeout)
	defer cancel()
	products, err := pc.catalog.ListProducts(ctx, filter)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pc.timeout)
	defer cancel()
	product, err := pc.catalog.GetProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// UpdateProduct applies a partial update (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var update models.ProductUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.timeout)
	defer cancel()
	product, err := pc.catalog.UpdateProduct(ctx, mux.Vars(r)["id"], update)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pc.timeout)
	defer cancel()
	if err := pc.catalog.DeleteProduct(ctx, mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Product deleted")
}
