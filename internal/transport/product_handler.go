package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"product-store/internal/domain"
	"product-store/internal/middleware"
	"product-store/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(repo repository.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{id:[0-9]+}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Request to create a product")

	if !hasJSONContentType(r) {
		h.logger.Error("Invalid Content-Type", zap.String("content_type", r.Header.Get("Content-Type")))
		middleware.RespondWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	data, err := decodeBody(r)
	if err != nil {
		h.logger.Debug("Failed to decode request body", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &domain.Product{}
	if err := product.Deserialize(data); err != nil {
		h.logger.Debug("Product deserialization failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := middleware.ValidateRequest(product); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))

	w.Header().Set("Location", fmt.Sprintf("/products/%d", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, product.Serialize())
}

// List returns all products, or the ones matching a single query
// filter. Filters apply in precedence order name, category, available,
// price; only the first one present is used.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Request to list products")

	ctx := r.Context()
	query := r.URL.Query()

	var (
		products []*domain.Product
		err      error
	)

	switch {
	case query.Get("name") != "":
		name := query.Get("name")
		h.logger.Info("Filtering products by name", zap.String("name", name))
		products, err = h.repo.FindByName(ctx, name)

	case query.Get("category") != "":
		raw := query.Get("category")
		h.logger.Info("Filtering products by category", zap.String("category", raw))
		category, parseErr := domain.ParseCategory(strings.ToUpper(raw))
		if parseErr != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		products, err = h.repo.FindByCategory(ctx, category)

	case query.Get("available") != "":
		raw := query.Get("available")
		h.logger.Info("Filtering products by availability", zap.String("available", raw))
		products, err = h.repo.FindByAvailability(ctx, isTruthy(raw))

	case query.Get("price") != "":
		raw := query.Get("price")
		h.logger.Info("Filtering products by price", zap.String("price", raw))
		products, err = h.repo.FindByPriceString(ctx, raw)
		if errors.Is(err, domain.ErrValidation) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

	default:
		products, err = h.repo.All(ctx)
	}

	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	results := make([]map[string]any, 0, len(products))
	for _, p := range products {
		results = append(results, p.Serialize())
	}

	middleware.RespondWithJSON(w, http.StatusOK, results)
}

// Get returns a single product by id
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Product with id '%d' was not found.", id))
			return
		}
		h.logger.Error("Failed to find product", zap.Error(err), zap.Int64("product_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product.Serialize())
}

// Update replaces the fields of an existing product with the request
// body. The id from the path always wins over any id in the payload.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	h.logger.Info("Request to update a product", zap.Int64("product_id", id))

	if !hasJSONContentType(r) {
		h.logger.Error("Invalid Content-Type", zap.String("content_type", r.Header.Get("Content-Type")))
		middleware.RespondWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	product, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Product with id '%d' was not found.", id))
			return
		}
		h.logger.Error("Failed to find product", zap.Error(err), zap.Int64("product_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	data, err := decodeBody(r)
	if err != nil {
		h.logger.Debug("Failed to decode request body", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := product.Deserialize(data); err != nil {
		h.logger.Debug("Product deserialization failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	product.ID = id

	if err := middleware.ValidateRequest(product); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repo.Update(r.Context(), product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Product with id '%d' was not found.", id))
			return
		}
		h.logger.Error("Failed to update product", zap.Error(err), zap.Int64("product_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product.Serialize())
}

// Delete removes a product. Unlike the other handlers this one reports
// a miss with a plain message body instead of the structured error
// envelope; clients depend on that shape.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	h.logger.Info("Request to delete a product", zap.Int64("product_id", id))

	product, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithJSON(w, http.StatusNotFound, map[string]string{"message": "Product with given ID not found."})
			return
		}
		h.logger.Error("Failed to find product", zap.Error(err), zap.Int64("product_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete product", zap.Error(err), zap.Int64("product_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id), zap.String("name", product.Name))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted."})
}

func productID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func hasJSONContentType(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

// decodeBody reads the request body as a generic JSON object, keeping
// numbers as json.Number so decimal prices survive intact.
func decodeBody(r *http.Request) (map[string]any, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var data map[string]any
	if err := decoder.Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// isTruthy mirrors the query-string convention for the available
// filter: true, yes and 1 in any case count as true.
func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}
