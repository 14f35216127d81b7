package services

import (
	"errors"
	"io"
	"path"
	"strings"
)

const maxImageSize = 3 << 20 // 3MB

var (
	ErrInvalidImageFormat = errors.New("image must be a png, jpg or jpeg file")
	ErrImageTooLarge      = errors.New("image must be at most 3MB")
)

// FileUpload carries the content of one multipart file into a service.
type FileUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

func validateImageFile(f *FileUpload) error {
	switch strings.ToLower(path.Ext(f.Filename)) {
	case ".png", ".jpg", ".jpeg":
	default:
		return ErrInvalidImageFormat
	}
	if f.Size > maxImageSize {
		return ErrImageTooLarge
	}
	return nil
}
