package v1

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
	"github.com/basterrika/wp-image-optimizer/pkg/logger"
	"github.com/basterrika/wp-image-optimizer/pkg/storage"
)

func init() {
	logger.Init("test", "error")
}

// stubConverter records the descriptor it was handed and returns a
// canned result, standing in for the real pipeline.
type stubConverter struct {
	got    *domain.Upload
	mutate func(domain.Upload) domain.Upload
}

func (s *stubConverter) Convert(up domain.Upload) domain.Upload {
	s.got = &up
	if s.mutate != nil {
		return s.mutate(up)
	}
	return up
}

func newHandler(t *testing.T, conv Converter) (*UploadHandler, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "http://localhost:8080/uploads")
	require.NoError(t, err)
	return NewUploadHandler(store, conv, 10), dir
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadFileRunsConverter(t *testing.T) {
	conv := &stubConverter{mutate: func(up domain.Upload) domain.Upload {
		up.MimeType = domain.MimeWebP
		return up
	}}
	h, dir := newHandler(t, conv)

	body, contentType := multipartBody(t, "cat.png", "image/png", smallPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadFile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, conv.got, "converter must run on the upload-handled hook")
	require.Equal(t, filepath.Join(dir, "cat.png"), conv.got.Path)

	var resp domain.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, domain.MimeWebP, resp.MimeType)
}

func TestUploadFileRejectsMimeType(t *testing.T) {
	conv := &stubConverter{}
	h, _ := newHandler(t, conv)

	body, contentType := multipartBody(t, "script.svg", "image/svg+xml", []byte("<svg/>"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadFile(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, conv.got)
}

func TestUploadFileRejectsExtension(t *testing.T) {
	conv := &stubConverter{}
	h, _ := newHandler(t, conv)

	body, contentType := multipartBody(t, "cat.png.exe", "image/png", smallPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadFile(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, conv.got)
}

func TestSideloadRunsConverter(t *testing.T) {
	conv := &stubConverter{}
	h, dir := newHandler(t, conv)

	path := filepath.Join(dir, "imported.png")
	require.NoError(t, os.WriteFile(path, smallPNG(t), 0644))

	payload, err := json.Marshal(domain.Upload{Path: path, MimeType: domain.MimePNG})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sideload", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	h.Sideload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, conv.got, "converter must run on the sideload hook")
	require.Equal(t, path, conv.got.Path)
	require.Equal(t, "http://localhost:8080/uploads/imported.png", conv.got.URL,
		"missing URL is derived from storage before conversion")
}

func TestSideloadMissingFile(t *testing.T) {
	conv := &stubConverter{}
	h, _ := newHandler(t, conv)

	payload := strings.NewReader(`{"path":"/nonexistent/x.png","mime_type":"image/png","url":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sideload", payload)
	rec := httptest.NewRecorder()

	h.Sideload(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Nil(t, conv.got)
}
