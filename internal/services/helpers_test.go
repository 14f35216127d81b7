package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/config"
	"storefront/internal/media"
	"storefront/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// A pooled :memory: connection per goroutine would mean a DB per
	// connection; force a single one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.ProductImage{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTAccessExpiry:     15 * time.Minute,
		JWTRefreshExpiry:    24 * time.Hour,
		PlaceholderImageURL: "https://media.test/placeholder.png",
	}
}

// fakeMediaStore records uploads and deletes. failAfter >= 0 makes the
// (failAfter+1)-th upload fail, for exercising compensation paths.
type fakeMediaStore struct {
	uploads   []string
	deleted   []string
	failAfter int
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{failAfter: -1}
}

func (f *fakeMediaStore) Upload(_ context.Context, folder, filename string, r io.Reader, size int64) (*media.Asset, error) {
	if f.failAfter >= 0 && len(f.uploads) >= f.failAfter {
		return nil, media.ErrUploadFailed
	}
	handle := fmt.Sprintf("%s/obj-%d%s", folder, len(f.uploads), strings.ToLower(path.Ext(filename)))
	f.uploads = append(f.uploads, handle)
	return &media.Asset{
		URL:    "https://media.test/" + handle,
		Handle: handle,
	}, nil
}

func (f *fakeMediaStore) Delete(_ context.Context, handle string) error {
	f.deleted = append(f.deleted, handle)
	return nil
}

func imageFile(name string, size int64) *FileUpload {
	return &FileUpload{
		Filename: name,
		Size:     size,
		Content:  strings.NewReader("not really an image"),
	}
}
