package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/comanda-app/comanda-api/utils"
)

// MockImageService is an in-memory ImageService for testing menu photo flows
type MockImageService struct {
	photos map[string][]byte // storage key -> file content
	mu     sync.RWMutex
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{
		photos: make(map[string][]byte),
	}
}

// SetAsMockForTesting installs this mock as the global image service
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// UploadImage validates the file and stores its content in memory
func (m *MockImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("menu/mock_%s", fileHeader.Filename)

	m.mu.Lock()
	m.photos[key] = content
	m.mu.Unlock()

	return key, nil
}

// GetImageURL returns a fake presigned URL for a stored photo
func (m *MockImageService) GetImageURL(imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.photos[imageKey]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("image not found in mock storage: %s", imageKey)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", imageKey), nil
}

// DeleteImage removes a photo from the in-memory store
func (m *MockImageService) DeleteImage(imageKey string) error {
	if imageKey == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.photos, imageKey)
	m.mu.Unlock()

	return nil
}

// ImageExists reports whether a photo is in the mock store
func (m *MockImageService) ImageExists(imageKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.photos[imageKey]
	return exists
}

// Clear empties the mock store
func (m *MockImageService) Clear() {
	m.mu.Lock()
	m.photos = make(map[string][]byte)
	m.mu.Unlock()
}
