package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

// MaxResumeSize is the largest resume accepted, in bytes
const MaxResumeSize = 5 * 1024 * 1024

// AllowedTypes are the resume MIME types the backend accepts
var AllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

const (
	msgWrongType = "Please upload a PDF or Word document"
	msgTooLarge  = "File size must be less than 5MB"
)

// SelectedFile is a resume picked for upload but not yet sent
type SelectedFile struct {
	Path string
	Name string
	Size int64
	MIME string
}

// Inspect stats the file at path and sniffs its content type
func Inspect(path string) (SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, fmt.Errorf("failed to read file: %w", err)
	}
	if info.IsDir() {
		return SelectedFile{}, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return SelectedFile{}, fmt.Errorf("failed to detect file type: %w", err)
	}

	return SelectedFile{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: mtype.String(),
	}, nil
}

// Check applies the local type and size rules
func (f SelectedFile) Check() error {
	if !slices.Contains(AllowedTypes, f.MIME) {
		return &ValidationError{Message: msgWrongType}
	}
	if f.Size > MaxResumeSize {
		return &ValidationError{Message: msgTooLarge}
	}
	return nil
}

// ValidationError is a local check failure; nothing was sent
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
