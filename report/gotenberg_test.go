package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLRequestShape(t *testing.T) {
	var gotPath string
	var fileName, fileBody string
	fields := map[string]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for name, values := range r.MultipartForm.Value {
			fields[name] = values[0]
		}
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		fileName = header.Filename
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		fileBody = string(body)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	pdf, err := client.RenderHTML(context.Background(), "<html><body>Invoice INV-0001</body></html>")
	require.NoError(t, err)

	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.Equal(t, "index.html", fileName)
	assert.Contains(t, fileBody, "INV-0001")
	assert.Equal(t, "8.27", fields["paperWidth"])
	assert.Equal(t, "11.7", fields["paperHeight"])
	assert.Equal(t, "true", fields["preferCssPageSize"])
	assert.Equal(t, "true", fields["printBackground"])
	assert.Equal(t, []byte("%PDF-1.7"), pdf)
}

func TestRenderHTMLFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<html></html>")
	assert.Error(t, err)
}
