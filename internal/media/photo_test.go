package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electoral-app/internal/common"
)

// pngHeader is enough for content sniffing
var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func TestPhotoFromReader_Image(t *testing.T) {
	photo, err := PhotoFromReader("mesa.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "mesa.png", photo.Name)
	assert.Equal(t, "image/png", photo.ContentType)
	assert.Equal(t, len(pngHeader), photo.Size())
}

func TestPhotoFromReader_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("hola mundo")},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, MaxPhotoSize)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PhotoFromReader("x", bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, common.IsErrorCode(err, common.ErrValidation))
		})
	}
}

func TestOpenPhoto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perfil.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o644))

	photo, err := OpenPhoto(path)
	require.NoError(t, err)
	assert.Equal(t, "perfil.png", photo.Name)

	_, err = OpenPhoto(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing.png"))
}
