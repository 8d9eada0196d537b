package services

import (
	"fmt"
	"mime/multipart"

	"github.com/comanda-app/comanda-api/utils"
)

// ImageService stores and serves menu item photos. The production
// implementation sits on S3; tests install an in-memory one through
// SetImageService.
type ImageService interface {
	UploadImage(fileHeader *multipart.FileHeader) (string, error)
	GetImageURL(imageKey string) (string, error)
	DeleteImage(imageKey string) error
}

var imageServiceInstance ImageService

// InitImageService wires the menu photo store to an S3 backend
func InitImageService(s3Service S3Interface) ImageService {
	imageServiceInstance = &S3ImageService{s3: s3Service}
	return imageServiceInstance
}

// GetImageService returns the installed image service, nil if photos
// are not configured
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService replaces the installed image service (used by tests)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// S3ImageService keeps menu photos in an S3 bucket
type S3ImageService struct {
	s3 S3Interface
}

// UploadImage validates a menu photo and stores it, returning the
// storage key to persist on the menu item.
func (s *S3ImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	s3Key, err := s.s3.UploadFile(fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s3Key, nil
}

// GetImageURL presigns a download URL for a stored photo. An empty key
// yields an empty URL, not an error, so menu items without photos render
// cleanly.
func (s *S3ImageService) GetImageURL(imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}
	url, err := s.s3.GetPresignedURL(imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage removes a stored photo; deleting a missing key is a no-op
func (s *S3ImageService) DeleteImage(imageKey string) error {
	if imageKey == "" {
		return nil
	}
	if err := s.s3.DeleteFile(imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
