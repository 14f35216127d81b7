package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/dto"
	"storefront/internal/media"
	"storefront/internal/models"
)

const maxProductImages = 5

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateName    = errors.New("a product with this name already exists")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name must be at most 120 characters")
	ErrDescriptionEmpty = errors.New("description is required")
	ErrDescriptionLong  = errors.New("description must be at most 600 characters")
	ErrInvalidPrice     = errors.New("price must be a number greater than 0")
	ErrTooManyImages    = errors.New("a product can have at most 5 images")
	ErrImageNotFound    = errors.New("image does not belong to this product")
)

type ProductService struct {
	db    *gorm.DB
	cfg   *config.Config
	media media.Store
}

func NewProductService(db *gorm.DB, cfg *config.Config, mediaStore media.Store) *ProductService {
	return &ProductService{db: db, cfg: cfg, media: mediaStore}
}

// Create validates, uploads all image files, then persists the product and
// its image rows in a single transaction. If the persist fails, the
// just-uploaded assets are deleted again so nothing is leaked on the host.
func (s *ProductService) Create(ctx context.Context, req *dto.CreateProductRequest, files []*FileUpload) (*dto.ProductResponse, error) {
	if err := validateProductFields(req.Name, req.Description, true); err != nil {
		return nil, err
	}

	var existing models.Product
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, ErrDuplicateName
	}

	price, err := parsePrice(req.Price, true)
	if err != nil {
		return nil, err
	}

	if len(files) > maxProductImages {
		return nil, ErrTooManyImages
	}
	for _, f := range files {
		if err := validateImageFile(f); err != nil {
			return nil, err
		}
	}

	assets, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
	}
	for _, a := range assets {
		product.Images = append(product.Images, models.ProductImage{URL: a.URL, DeleteHandle: a.Handle})
	}
	if len(product.Images) == 0 {
		product.Images = append(product.Images, models.ProductImage{URL: s.cfg.PlaceholderImageURL})
	}

	if err := s.db.Create(&product).Error; err != nil {
		s.deleteAssets(ctx, assets)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return mapProductToResponse(&product), nil
}

// Update applies field changes, image deletions and image additions. The
// resulting image count is checked before anything is mutated. New files are
// uploaded first; all row changes happen in one transaction, and remote
// assets of removed rows are released best-effort after the commit.
func (s *ProductService) Update(ctx context.Context, id uint, req *dto.UpdateProductRequest, addFiles []*FileUpload, deleteImageIDs []uint) (*dto.ProductResponse, error) {
	var product models.Product
	if err := s.db.Preload("Images").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := validateProductFields(req.Name, req.Description, false); err != nil {
		return nil, err
	}
	if req.Name != "" && req.Name != product.Name {
		var existing models.Product
		if err := s.db.Where("name = ? AND id <> ?", req.Name, id).First(&existing).Error; err == nil {
			return nil, ErrDuplicateName
		}
	}

	price, err := parsePrice(req.Price, false)
	if err != nil {
		return nil, err
	}

	// Every id slated for deletion must belong to this product. Repeated
	// ids are collapsed so they cannot inflate the count check below.
	owned := make(map[uint]*models.ProductImage, len(product.Images))
	for i := range product.Images {
		owned[product.Images[i].ID] = &product.Images[i]
	}
	removed := make(map[uint]*models.ProductImage, len(deleteImageIDs))
	for _, imgID := range deleteImageIDs {
		img, ok := owned[imgID]
		if !ok {
			return nil, ErrImageNotFound
		}
		removed[imgID] = img
	}

	// Count check happens before any deletion or upload.
	if len(product.Images)-len(removed)+len(addFiles) > maxProductImages {
		return nil, ErrTooManyImages
	}
	for _, f := range addFiles {
		if err := validateImageFile(f); err != nil {
			return nil, err
		}
	}

	assets, err := s.uploadAll(ctx, addFiles)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if req.Name != "" {
			updates["name"] = req.Name
		}
		if req.Description != "" {
			updates["description"] = req.Description
		}
		if req.Price != "" {
			updates["price"] = price
		}
		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
		}
		for _, img := range removed {
			if err := tx.Delete(&models.ProductImage{}, "id = ?", img.ID).Error; err != nil {
				return err
			}
		}
		for _, a := range assets {
			row := models.ProductImage{ProductID: product.ID, URL: a.URL, DeleteHandle: a.Handle}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.deleteAssets(ctx, assets)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	for _, img := range removed {
		if img.DeleteHandle == "" {
			continue
		}
		if err := s.media.Delete(ctx, img.DeleteHandle); err != nil {
			slog.Error("remote image cleanup failed", "product_id", product.ID, "handle", img.DeleteHandle, "error", err)
		}
	}

	return s.Get(product.ID)
}

// Delete removes the product and its image rows, then releases the remote
// assets. Handles are captured before the local delete so a failed remote
// call can still be retried from logs.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	var product models.Product
	if err := s.db.Preload("Images").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	handles := make([]string, 0, len(product.Images))
	for _, img := range product.Images {
		if img.DeleteHandle != "" {
			handles = append(handles, img.DeleteHandle)
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	for _, handle := range handles {
		if err := s.media.Delete(ctx, handle); err != nil {
			slog.Error("remote image cleanup failed", "product_id", id, "handle", handle, "error", err)
		}
	}

	return nil
}

func (s *ProductService) Get(id uint) (*dto.ProductResponse, error) {
	var product models.Product
	if err := s.db.Preload("Images").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return mapProductToResponse(&product), nil
}

func (s *ProductService) List() (*dto.ProductsListResponse, error) {
	var products []models.Product
	var total int64

	if err := s.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Images").Order("id DESC").Find(&products).Error; err != nil {
		return nil, err
	}

	resp := &dto.ProductsListResponse{
		Products: make([]dto.ProductResponse, len(products)),
		Total:    total,
	}
	for i := range products {
		resp.Products[i] = *mapProductToResponse(&products[i])
	}
	return resp, nil
}

// uploadAll uploads every file or none: a failure part-way through deletes
// what was already uploaded before returning.
func (s *ProductService) uploadAll(ctx context.Context, files []*FileUpload) ([]*media.Asset, error) {
	assets := make([]*media.Asset, 0, len(files))
	for _, f := range files {
		asset, err := s.media.Upload(ctx, "products", f.Filename, f.Content, f.Size)
		if err != nil {
			s.deleteAssets(ctx, assets)
			return nil, fmt.Errorf("failed to upload image %q: %w", f.Filename, err)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (s *ProductService) deleteAssets(ctx context.Context, assets []*media.Asset) {
	for _, a := range assets {
		if err := s.media.Delete(ctx, a.Handle); err != nil {
			slog.Error("compensating asset delete failed", "handle", a.Handle, "error", err)
		}
	}
}

func validateProductFields(name, description string, required bool) error {
	if required && name == "" {
		return ErrNameRequired
	}
	if len(name) > 120 {
		return ErrNameTooLong
	}
	if required && description == "" {
		return ErrDescriptionEmpty
	}
	if len(description) > 600 {
		return ErrDescriptionLong
	}
	return nil
}

func parsePrice(raw string, required bool) (float64, error) {
	if raw == "" {
		if required {
			return 0, ErrInvalidPrice
		}
		return 0, nil
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 0, ErrInvalidPrice
	}
	return price, nil
}

func mapProductToResponse(p *models.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Images:      make([]dto.ProductImageResponse, len(p.Images)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i, img := range p.Images {
		resp.Images[i] = dto.ProductImageResponse{ID: img.ID, URL: img.URL}
	}
	return resp
}
