package handlers

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/models"
	service "github.com/farmsmart/farm-smart/internal/services"
	"github.com/farmsmart/farm-smart/internal/utils"
	"github.com/farmsmart/farm-smart/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type ProductHandler struct {
	productService service.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService, validator: validator.New()}
}

// CreateProduct godoc
//	@Summary		Add a product to the catalog
//	@Description	Accepts JSON or form fields. Price is sent as text and must be a non-negative number with at most two decimals.
//	@Tags			Products
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			product	body		models.CreateProductRequest	true	"Product details"
//	@Success		201		{object}	models.Product				"Product created"
//	@Failure		400		{object}	response.ErrorResponse		"Invalid input"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/products [post]
func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateProductRequest

		if isForm(r) {
			if err := r.ParseForm(); err != nil {
				logger.Warn("Invalid product form", slog.String("error", err.Error()))
				response.Error(w, errors.BadRequestError("invalid form data"))
				return
			}

			req = models.CreateProductRequest{
				Name:        r.PostForm.Get("name"),
				Description: r.PostForm.Get("description"),
				Price:       r.PostForm.Get("price"),
				ImageRef:    r.PostForm.Get("image_ref"),
			}

			if err := utils.ValidateStruct(h.validator, &req); err != nil {
				if validationErrs, ok := utils.AsValidationErrors(err); ok {
					response.ValidationError(w, validationErrs)
					return
				}
				response.Error(w, errors.InvalidInputError("invalid input data"))
				return
			}
		} else if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create product input")
			return
		}

		product, err := h.productService.CreateProduct(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create product", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product created successfully", slog.Int64("productId", product.ID))
		response.Success(w, http.StatusCreated, product)
	}
}

// GetProduct godoc
//	@Summary		Get a product by ID
//	@Tags			Products
//	@Produce		json
//	@Param			id	path		int						true	"Product ID"
//	@Success		200	{object}	models.Product			"Product found"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid product ID"
//	@Failure		404	{object}	response.ErrorResponse	"Product not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/products/{id} [get]
func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseInt64ID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		product, err := h.productService.GetProductByID(r.Context(), id)
		if err != nil {
			logger.Warn("Failed to get product", slog.Int64("productId", id), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

// ListProducts godoc
//	@Summary		List catalog products
//	@Description	Products are returned in id order.
//	@Tags			Products
//	@Produce		json
//	@Param			page		query		int													false	"Page number (default: 1)"				minimum(1)
//	@Param			pageSize	query		int													false	"Items per page (default: 20, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Product}	"Products"
//	@Failure		500			{object}	response.ErrorResponse								"Internal server error"
//	@Router			/products [get]
func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		page, pageSize := service.NormalizePage(utils.ParsePagination(r))

		products, total, err := h.productService.ListProducts(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list products", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Page(w, products, total, page, pageSize)
	}
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}
