package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/dto"
	"storefront/internal/models"
)

func TestCreateProductRejectsBadPrice(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, testConfig(), newFakeMediaStore())

	for _, price := range []string{"", "0", "-5", "abc"} {
		_, err := svc.Create(context.Background(), &dto.CreateProductRequest{
			Name:        "Lamp",
			Description: "A lamp",
			Price:       price,
		}, nil)
		assert.ErrorIs(t, err, ErrInvalidPrice, "price %q", price)
	}

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestCreateProductWithoutImagesGetsPlaceholder(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewProductService(db, cfg, newFakeMediaStore())

	product, err := svc.Create(context.Background(), &dto.CreateProductRequest{
		Name:        "Lamp",
		Description: "A lamp",
		Price:       "19.99",
	}, nil)
	assert.NoError(t, err)
	assert.Len(t, product.Images, 1)
	assert.Equal(t, cfg.PlaceholderImageURL, product.Images[0].URL)

	// The placeholder is not remotely hosted, so it carries no handle.
	var img models.ProductImage
	assert.NoError(t, db.First(&img, "product_id = ?", product.ID).Error)
	assert.Empty(t, img.DeleteHandle)
}

func TestCreateProductRoundTripWithImages(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	svc := NewProductService(db, testConfig(), store)

	created, err := svc.Create(context.Background(), &dto.CreateProductRequest{
		Name:        "Chair",
		Description: "A chair",
		Price:       "49.50",
	}, []*FileUpload{
		imageFile("front.png", 1024),
		imageFile("side.jpg", 2048),
		imageFile("back.jpeg", 4096),
	})
	assert.NoError(t, err)
	assert.Len(t, store.uploads, 3)

	fetched, err := svc.Get(created.ID)
	assert.NoError(t, err)
	assert.Len(t, fetched.Images, 3)

	wantURLs := make([]string, len(store.uploads))
	for i, handle := range store.uploads {
		wantURLs[i] = "https://media.test/" + handle
	}
	gotURLs := make([]string, len(fetched.Images))
	for i, img := range fetched.Images {
		gotURLs[i] = img.URL
	}
	assert.ElementsMatch(t, wantURLs, gotURLs)
}

func TestCreateProductValidatesImages(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, testConfig(), newFakeMediaStore())

	req := &dto.CreateProductRequest{Name: "Desk", Description: "A desk", Price: "100"}

	_, err := svc.Create(context.Background(), req, []*FileUpload{imageFile("notes.pdf", 1024)})
	assert.ErrorIs(t, err, ErrInvalidImageFormat)

	_, err = svc.Create(context.Background(), req, []*FileUpload{imageFile("huge.png", 4<<20)})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	six := make([]*FileUpload, 6)
	for i := range six {
		six[i] = imageFile("a.png", 1024)
	}
	_, err = svc.Create(context.Background(), req, six)
	assert.ErrorIs(t, err, ErrTooManyImages)

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestCreateProductDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, testConfig(), newFakeMediaStore())

	_, err := svc.Create(context.Background(), &dto.CreateProductRequest{Name: "Lamp", Description: "A lamp", Price: "10"}, nil)
	assert.NoError(t, err)

	_, err = svc.Create(context.Background(), &dto.CreateProductRequest{Name: "Lamp", Description: "Other lamp", Price: "12"}, nil)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateProductCompensatesPartialUploadFailure(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	store.failAfter = 1
	svc := NewProductService(db, testConfig(), store)

	_, err := svc.Create(context.Background(), &dto.CreateProductRequest{
		Name:        "Sofa",
		Description: "A sofa",
		Price:       "300",
	}, []*FileUpload{
		imageFile("a.png", 1024),
		imageFile("b.png", 1024),
	})
	assert.Error(t, err)

	// The first upload succeeded and must have been deleted again.
	assert.Len(t, store.uploads, 1)
	assert.Equal(t, store.uploads, store.deleted)

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestUpdateProductNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, testConfig(), newFakeMediaStore())

	_, err := svc.Update(context.Background(), 999, &dto.UpdateProductRequest{Name: "X"}, nil, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateProductImageCountCheckedBeforeMutation(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	svc := NewProductService(db, testConfig(), store)

	created, err := svc.Create(context.Background(), &dto.CreateProductRequest{
		Name:        "Shelf",
		Description: "A shelf",
		Price:       "80",
	}, []*FileUpload{
		imageFile("a.png", 1024),
		imageFile("b.png", 1024),
		imageFile("c.png", 1024),
		imageFile("d.png", 1024),
	})
	assert.NoError(t, err)
	uploadsBefore := len(store.uploads)

	// 4 existing - 1 deleted + 3 added = 6 > 5.
	_, err = svc.Update(context.Background(), created.ID, &dto.UpdateProductRequest{},
		[]*FileUpload{imageFile("e.png", 1024), imageFile("f.png", 1024), imageFile("g.png", 1024)},
		[]uint{created.Images[0].ID})
	assert.ErrorIs(t, err, ErrTooManyImages)

	// Nothing was uploaded, deleted locally or deleted remotely.
	assert.Len(t, store.uploads, uploadsBefore)
	assert.Empty(t, store.deleted)

	fetched, err := svc.Get(created.ID)
	assert.NoError(t, err)
	assert.Len(t, fetched.Images, 4)
}

func TestUpdateProductDuplicateDeleteIDsCannotInflateCount(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	svc := NewProductService(db, testConfig(), store)

	created, err := svc.Create(context.Background(), &dto.CreateProductRequest{
		Name:        "Bench",
		Description: "A bench",
		Price:       "90",
	}, []*FileUpload{
		imageFile("a.png", 1024),
		imageFile("b.png", 1024),
		imageFile("c.png", 1024),
		imageFile("d.png", 1024),
		imageFile("e.png", 1024),
	})
	assert.NoError(t, err)

	// The same id listed twice deletes one row, not two: 5 - 1 + 2 > 5.
	dup := created.Images[0].ID
	_, err = svc.Update(context.Background(), created.ID, &dto.UpdateProductRequest{},
		[]*FileUpload{imageFile("f.png", 1024), imageFile("g.png", 1024)},
		[]uint{dup, dup})
	assert.ErrorIs(t, err, ErrTooManyImages)

	fetched, err := svc.Get(created.ID)
	assert.NoError(t, err)
	assert.Len(t, fetched.Images, 5)
}

func TestUpdateProductRejectsForeignImageID(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, testConfig(), newFakeMediaStore())

	first, err := svc.Create(context.Background(), &dto.CreateProductRequest{Name: "A", Description: "a", Price: "1"}, []*FileUpload{imageFile("a.png", 10)})
	assert.NoError(t, err)
	second, err := svc.Create(context.Background(), &dto.CreateProductRequest{Name: "B", Description: "b", Price: "2"}, []*FileUpload{imageFile("b.png", 10)})
	assert.NoError(t, err)

	_, err = svc.Update(context.Background(), second.ID, &dto.UpdateProductRequest{}, nil, []uint{first.Images[0].ID})
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestUpdateProductAddAndRemoveImages(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	svc := NewProductService(db, testConfig(), store)

	created, err := svc.Create(context.Background(), &dto.CreateProductRequest{
		Name:        "Table",
		Description: "A table",
		Price:       "120",
	}, []*FileUpload{imageFile("old.png", 1024)})
	assert.NoError(t, err)
	removedHandle := store.uploads[0]

	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateProductRequest{
		Name:  "Dining table",
		Price: "150",
	}, []*FileUpload{imageFile("new.jpg", 2048)}, []uint{created.Images[0].ID})
	assert.NoError(t, err)

	assert.Equal(t, "Dining table", updated.Name)
	assert.EqualValues(t, 150, updated.Price)
	assert.Len(t, updated.Images, 1)
	assert.NotEqual(t, created.Images[0].URL, updated.Images[0].URL)

	// The removed row's remote asset was released after the commit.
	assert.Contains(t, store.deleted, removedHandle)
}

func TestDeleteProductReleasesRemoteAssets(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	svc := NewProductService(db, testConfig(), store)

	created, err := svc.Create(context.Background(), &dto.CreateProductRequest{
		Name:        "Rug",
		Description: "A rug",
		Price:       "60",
	}, []*FileUpload{imageFile("a.png", 1024), imageFile("b.jpg", 1024)})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.ElementsMatch(t, store.uploads, store.deleted)

	_, err = svc.Get(created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	var imgCount int64
	db.Model(&models.ProductImage{}).Count(&imgCount)
	assert.EqualValues(t, 0, imgCount)
}

func TestDeleteProductNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, testConfig(), newFakeMediaStore())

	assert.ErrorIs(t, svc.Delete(context.Background(), 999), ErrProductNotFound)
}

func TestListProducts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, testConfig(), newFakeMediaStore())

	_, err := svc.Create(context.Background(), &dto.CreateProductRequest{Name: "A", Description: "a", Price: "1"}, nil)
	assert.NoError(t, err)
	_, err = svc.Create(context.Background(), &dto.CreateProductRequest{Name: "B", Description: "b", Price: "2"}, nil)
	assert.NoError(t, err)

	list, err := svc.List()
	assert.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
	assert.Len(t, list.Products, 2)
}
