package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported image")

const maxDimension = 10000

type Info struct {
	ContentType string
	Format      string
	Width       int
	Height      int
	Size        int64
}

// Inspect sniffs the file at path and decodes just enough of it to learn the
// image format and dimensions. Anything that is not a decodable image within
// maxDimension yields ErrUnsupportedImage.
func Inspect(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("stat media: %w", err)
	}

	contentType, err := DetectContentType(file)
	if err != nil {
		return Info{}, err
	}
	if !IsImageMIME(contentType) {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxDimension || cfg.Height > maxDimension {
		return Info{}, fmt.Errorf("%w: dimensions %dx%d", ErrUnsupportedImage, cfg.Width, cfg.Height)
	}

	return Info{
		ContentType: contentType,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        stat.Size(),
	}, nil
}

// DetectContentType reads the first 512 bytes and rewinds the file.
func DetectContentType(file io.ReadSeeker) (string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return http.DetectContentType(buffer[:n]), nil
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}
