package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stockroom-io/stockroom/internal/service"
)

// maxImageUploadBytes caps a single image upload.
const maxImageUploadBytes = 16 << 20 // 16 MiB

// ProductHandler handles product management requests.
type ProductHandler struct {
	productService *service.ProductService
	logger         zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService *service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger.With().Str("handler", "products").Logger(),
	}
}

// RegisterRoutes registers product routes.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Patch("/", h.handleUpdate)
		r.Delete("/", h.handleDelete)

		r.Post("/{id}/images", h.handleUploadImage)
	})
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

type createProductRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImgURLs     []string `json:"imgUrls"`
	UserID      string   `json:"userId"`
	Amount      *float64 `json:"amount"`
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if req.UserID == "" {
		req.UserID = Identity(r.Context())
	}

	_, err := h.productService.Create(r.Context(), service.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		ImgURLs:     req.ImgURLs,
		UserID:      req.UserID,
		Amount:      req.Amount,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondMessage(w, http.StatusCreated, "New product created")
}

type updateProductRequest struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImgURLs     []string `json:"imgUrls"`
	Available   *bool    `json:"available"`
	UserID      string   `json:"userId"`
	Amount      *float64 `json:"amount"`
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if req.UserID == "" {
		req.UserID = Identity(r.Context())
	}

	product, err := h.productService.Update(r.Context(), service.UpdateProductInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		ImgURLs:     req.ImgURLs,
		Available:   req.Available,
		UserID:      req.UserID,
		Amount:      req.Amount,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondMessage(w, http.StatusOK, fmt.Sprintf("%s updated", product.Title))
}

type deleteProductRequest struct {
	ID string `json:"id"`
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "ID is required")
		return
	}

	product, err := h.productService.Delete(r.Context(), req.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondMessage(w, http.StatusOK,
		fmt.Sprintf("Product %q with an ID of %q deleted", product.Title, product.ID))
}

// handleUploadImage accepts a multipart upload under the "image" field,
// stores the bytes and appends the resulting URL to the product.
func (h *ProductHandler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadBytes)
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		respondMessage(w, http.StatusBadRequest, "Image file is required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	product, err := h.productService.AttachImage(r.Context(), productID,
		header.Filename, file, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}
