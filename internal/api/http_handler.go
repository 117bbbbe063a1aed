package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"marketplace-catalog-service/internal/catalog"
	"marketplace-catalog-service/internal/domain"
	"marketplace-catalog-service/internal/store"
	"marketplace-catalog-service/internal/validation"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	productStore store.ProductStorer
	orderStore   store.OrderStorer
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(ps store.ProductStorer, ors store.OrderStorer, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		productStore: ps,
		orderStore:   ors,
		validate:     validation.New(),
		logger:       logger,
	}
}

// RegisterRoutes mounts the marketplace API under /api/v1.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{productId}", h.GetProductByID)
			r.Delete("/{productId}", h.DeleteProduct)
		})
		r.Get("/categories", h.ListCategories)
		r.Get("/filters", h.GetFilterOptions)
		r.Post("/orders", h.PlaceOrder)
	})
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}

func parseProductID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	return id, err == nil && id > 0
}

// --- Product Handlers ---

// Pagination matches the page metadata returned with every list.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ProductListResponse is the body of GET /products.
type ProductListResponse struct {
	Data          []domain.Product       `json:"data"`
	Pagination    Pagination             `json:"pagination"`
	ActiveFilters []catalog.ActiveFilter `json:"active_filters"`
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()

	limit, err := strconv.Atoi(qParams.Get("limit"))
	if err != nil {
		limit = 0
	}
	limit = clampLimit(limit)
	pageNum, err := strconv.Atoi(qParams.Get("page"))
	if err != nil || pageNum <= 0 {
		pageNum = 1
	}

	sel, err := listQuery{
		Category:    qParams.Get("category"),
		Subcategory: qParams.Get("subcategory"),
		Search:      qParams.Get("q"),
		MinPrice:    qParams.Get("min_price"),
		MaxPrice:    qParams.Get("max_price"),
		MinRating:   qParams.Get("min_rating"),
		InStock:     qParams.Get("in_stock"),
		Sort:        qParams.Get("sort"),
	}.selection()
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.productStore.ListCatalog(r.Context())
	if err != nil {
		h.logger.Error("ListCatalog store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	matched := catalog.FilterAndSort(products, sel.Config())
	data, totalPages := page(matched, pageNum, limit)
	h.respondWithJSON(w, http.StatusOK, ProductListResponse{
		Data: data,
		Pagination: Pagination{
			Page:       pageNum,
			Limit:      limit,
			TotalItems: len(matched),
			TotalPages: totalPages,
		},
		ActiveFilters: sel.ActiveFilters(),
	})
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("GetProductByID store operation failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

// ProductCreateInput defines the expected input for creating a product.
type ProductCreateInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required,marketplace_category"`
	Subcategory string  `json:"subcategory" validate:"subcategory_of=Category"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url,max=2048"`
	Stock       int32   `json:"stock" validate:"gte=0"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int32   `json:"review_count" validate:"gte=0"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var input ProductCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    domain.Category(input.Category),
		Subcategory: input.Subcategory,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
		Rating:      input.Rating,
		ReviewCount: input.ReviewCount,
	}

	created, err := h.productStore.CreateProduct(r.Context(), product)
	if err != nil {
		if errors.Is(err, store.ErrInvalidProduct) {
			h.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("CreateProduct store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", created.ID), zap.String("category", string(created.Category)))
	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.productStore.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("DeleteProduct store operation failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	h.respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Taxonomy and filter menus ---

// CategoryResponse is one taxonomy entry with the number of products filed under it.
type CategoryResponse struct {
	Name          domain.Category `json:"name"`
	Subcategories []string        `json:"subcategories"`
	ProductCount  int             `json:"product_count"`
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.ListCatalog(r.Context())
	if err != nil {
		h.logger.Error("ListCatalog store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	h.respondWithJSON(w, http.StatusOK, struct {
		Data []CategoryResponse `json:"data"`
	}{Data: categoryCounts(products)})
}

func categoryCounts(products []domain.Product) []CategoryResponse {
	summary := catalog.Summarize(products)
	out := make([]CategoryResponse, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		count := summary.CategoryCounts[c.Name]
		if c.Name.IsAll() {
			count = summary.Total
		}
		out = append(out, CategoryResponse{Name: c.Name, Subcategories: c.Subcategories, ProductCount: count})
	}
	return out
}

// SortOption is one entry of the sort menu.
type SortOption struct {
	Key   domain.SortKey `json:"key"`
	Label string         `json:"label"`
}

// PriceRangeOption is a preset price bracket. Max is null for an open bracket.
type PriceRangeOption struct {
	Min   float64  `json:"min"`
	Max   *float64 `json:"max"`
	Label string   `json:"label"`
}

// FilterOptionsResponse is everything a client needs to render the filter sidebar.
type FilterOptionsResponse struct {
	SortOptions      []SortOption       `json:"sort_options"`
	PriceRanges      []PriceRangeOption `json:"price_ranges"`
	RatingThresholds []int              `json:"rating_thresholds"`
	Summary          catalog.Summary    `json:"summary"`
}

func (h *HTTPHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.ListCatalog(r.Context())
	if err != nil {
		h.logger.Error("ListCatalog store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve filter options")
		return
	}

	resp := FilterOptionsResponse{
		RatingThresholds: domain.RatingThresholds(),
		Summary:          catalog.Summarize(products),
	}
	for _, k := range domain.SortKeys() {
		resp.SortOptions = append(resp.SortOptions, SortOption{Key: k, Label: k.Label()})
	}
	for _, pr := range domain.PriceRanges() {
		resp.PriceRanges = append(resp.PriceRanges, PriceRangeOption{Min: pr.Min, Max: openBound(pr.Max), Label: pr.Label})
	}
	h.respondWithJSON(w, http.StatusOK, resp)
}

// --- Orders ---

// OrderItemInput is one product and how many units of it to buy.
type OrderItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required,gt=0,lte=100"`
}

// OrderCreateInput defines the expected input for checkout.
type OrderCreateInput struct {
	Items           []OrderItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	ShippingAddress string           `json:"shipping_address" validate:"max=500"`
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var input OrderCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	var cart catalog.Cart
	for _, item := range input.Items {
		product, err := h.productStore.GetProductByID(r.Context(), item.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrProductNotFound) {
				h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
				return
			}
			h.logger.Error("GetProductByID store operation failed", zap.Int64("product_id", item.ProductID), zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Failed to place order")
			return
		}
		for n := int32(0); n < item.Quantity; n++ {
			cart.Add(*product)
		}
	}

	order, err := cart.Checkout(input.ShippingAddress)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	placed, err := h.orderStore.PlaceOrder(r.Context(), &order)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			h.respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrProductNotFound):
			h.respondWithError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("PlaceOrder store operation failed", zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Failed to place order")
		}
		return
	}

	h.logger.Info("Order placed", zap.String("order_id", placed.ID), zap.Float64("total", placed.Total), zap.Int("lines", len(placed.Lines)))
	h.respondWithJSON(w, http.StatusCreated, placed)
}
