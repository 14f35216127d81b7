package dto

import "time"

// Product create/update bodies are multipart forms; image files ride along
// under the "images" field and are handled separately by the handler.
type CreateProductRequest struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Price       string `form:"price"`
}

type UpdateProductRequest struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Price       string `form:"price"`
	// Comma-separated ids of image rows to remove from the product.
	DeleteImageIDs string `form:"delete_image_ids"`
}

type ProductImageResponse struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

type ProductResponse struct {
	ID          uint                   `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Price       float64                `json:"price"`
	Images      []ProductImageResponse `json:"images"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type ProductsListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
}
