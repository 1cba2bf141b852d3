// Package media reads photos picked for upload.
package media

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"electoral-app/internal/common"
	"electoral-app/internal/models"
)

// MaxPhotoSize is the largest photo accepted for upload
const MaxPhotoSize = 10 << 20

// OpenPhoto reads the image file at path
func OpenPhoto(path string) (*models.Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrValidation, fmt.Sprintf("no se pudo abrir la foto %s", path), err)
	}
	defer f.Close()

	return PhotoFromReader(filepath.Base(path), f)
}

// PhotoFromReader reads a photo from r, sniffing its content type. Anything
// that is not an image, is empty or exceeds MaxPhotoSize is rejected.
func PhotoFromReader(name string, r io.Reader) (*models.Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoSize+1))
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrValidation, "no se pudo leer la foto", err)
	}
	if len(data) == 0 {
		return nil, common.NewError(common.ErrValidation, "la foto está vacía")
	}
	if len(data) > MaxPhotoSize {
		return nil, common.NewError(common.ErrValidation,
			fmt.Sprintf("la foto supera el máximo de %s", humanize.IBytes(MaxPhotoSize)))
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, common.NewError(common.ErrValidation,
			fmt.Sprintf("el archivo %s no es una imagen (%s)", name, contentType))
	}

	photo := &models.Photo{Name: name, ContentType: contentType, Data: data}
	log.Printf("📷 Photo %s ready (%s, %s)", name, contentType, humanize.IBytes(uint64(photo.Size())))
	return photo, nil
}
