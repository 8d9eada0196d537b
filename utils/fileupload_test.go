package utils

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// makeFileHeader builds a real multipart.FileHeader from an in-memory upload
func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, fileHeader, err := req.FormFile("image")
	assert.NoError(t, err)
	return fileHeader
}

func TestValidateImageFile(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		content      []byte
		expectedCode string
	}{
		{"png is accepted", "plato.png", []byte("png data"), ""},
		{"jpg is accepted", "plato.jpg", []byte("jpg data"), ""},
		{"jpeg is accepted", "plato.jpeg", []byte("jpeg data"), ""},
		{"uppercase extension is accepted", "PLATO.PNG", []byte("png data"), ""},
		{"pdf is rejected", "menu.pdf", []byte("%PDF-1.4"), "INVALID_FILE_FORMAT"},
		{"no extension is rejected", "plato", []byte("data"), "INVALID_FILE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageFile(makeFileHeader(t, tt.filename, tt.content))
			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}
			var fileErr *FileUploadError
			assert.True(t, errors.As(err, &fileErr))
			assert.Equal(t, tt.expectedCode, fileErr.Code)
		})
	}
}

func TestValidateImageFile_TooLarge(t *testing.T) {
	fileHeader := makeFileHeader(t, "plato.png", []byte("data"))
	fileHeader.Size = MaxFileSize + 1

	err := ValidateImageFile(fileHeader)
	var fileErr *FileUploadError
	assert.True(t, errors.As(err, &fileErr))
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
}

func TestSaveUploadedFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("fake image content")
	fileHeader := makeFileHeader(t, "plato.png", content)

	filename, err := SaveUploadedFile(fileHeader, dir)
	assert.NoError(t, err)
	assert.NotEmpty(t, filename)

	saved, err := os.ReadFile(filepath.Join(dir, filename))
	assert.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestGetImageURL(t *testing.T) {
	assert.Equal(t, "", GetImageURL(""))
	assert.Equal(t, "/api/v1/uploads/plato.png", GetImageURL("plato.png"))
}
