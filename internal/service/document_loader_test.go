package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/errors"
)

func TestLoadDocument_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster_2025-01-06.txt")
	require.NoError(t, os.WriteFile(path, []byte(docJan06), 0o644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "roster_2025-01-06.txt", doc.Name)
	assert.Equal(t, docJan06, doc.Text)
}

func TestLoadDocumentBytes_ExtensionCaseInsensitive(t *testing.T) {
	doc, err := LoadDocumentBytes("ROSTER.TXT", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Text)
}

func TestLoadDocumentBytes_Unsupported(t *testing.T) {
	for _, name := range []string{"roster.docx", "roster", "roster.xlsx"} {
		_, err := LoadDocumentBytes(name, []byte("x"))
		assert.True(t, errors.Is(err, apperrors.ErrUnsupportedDocument), name)
	}
}

func TestLoadDocumentBytes_BrokenPDF(t *testing.T) {
	_, err := LoadDocumentBytes("broken.pdf", []byte("not a pdf"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrUnsupportedDocument))
}

func TestLoadDocument_Missing(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
