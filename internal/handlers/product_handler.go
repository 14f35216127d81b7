package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/dto"
	"storefront/internal/services"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	files, closeFiles, err := collectImageFiles(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not read image files",
		})
	}
	defer closeFiles()

	product, err := h.productService.Create(c.Context(), &req, files)
	if err != nil {
		return productErrorResponse(c, err, "Failed to create product")
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid product ID",
		})
	}

	var req dto.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	deleteIDs, err := parseIDList(req.DeleteImageIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid delete_image_ids",
		})
	}

	files, closeFiles, err := collectImageFiles(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not read image files",
		})
	}
	defer closeFiles()

	product, err := h.productService.Update(c.Context(), id, &req, files, deleteIDs)
	if err != nil {
		return productErrorResponse(c, err, "Failed to update product")
	}

	return c.JSON(product)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid product ID",
		})
	}

	if err := h.productService.Delete(c.Context(), id); err != nil {
		return productErrorResponse(c, err, "Failed to delete product")
	}

	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid product ID",
		})
	}

	product, err := h.productService.Get(id)
	if err != nil {
		return productErrorResponse(c, err, "Failed to fetch product")
	}

	return c.JSON(product)
}

func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.productService.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch products",
		})
	}

	return c.JSON(products)
}

// productErrorResponse maps service errors onto the response taxonomy.
// Upstream failures (media host, persistence) become a generic 500: the
// underlying detail goes to the logs, not to the client.
func productErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrDuplicateName),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrNameTooLong),
		errors.Is(err, services.ErrDescriptionEmpty),
		errors.Is(err, services.ErrDescriptionLong),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrTooManyImages),
		errors.Is(err, services.ErrImageNotFound),
		errors.Is(err, services.ErrInvalidImageFormat),
		errors.Is(err, services.ErrImageTooLarge):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	slog.Error("product operation failed", "trace_id", requestID(c), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

// requestID pulls the id set by the requestid middleware, for correlating
// log rows with responses.
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// collectImageFiles opens every "images" multipart file. The returned
// closer releases all of them once the service call is done.
func collectImageFiles(c *fiber.Ctx) ([]*services.FileUpload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body at all means no images were supplied.
		return nil, func() {}, nil
	}

	headers := form.File["images"]
	uploads := make([]*services.FileUpload, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	closeAll := func() {
		for _, cl := range closers {
			_ = cl()
		}
	}

	for _, fh := range headers {
		upload, file, err := openUpload(fh)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		uploads = append(uploads, upload)
		closers = append(closers, file.Close)
	}

	return uploads, closeAll, nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parseIDList(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
