package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) upload(t *testing.T, token, kind, filename, content string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if kind != "" {
		require.NoError(t, mw.WriteField("kind", kind))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = io.WriteString(fw, content)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/media/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestMediaUploadServeRemove(t *testing.T) {
	env := newTestApp(t, generousLimits())
	asha, _ := env.signIn(t, "asha@rentspace.test")
	vikram, _ := env.signIn(t, "vikram@rentspace.test")

	resp, body := env.upload(t, asha, "photo", "Front.JPG", "jpeg-bytes")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "listing-photos", body["bucket"])
	key := body["key"].(string)
	assert.True(t, strings.HasPrefix(key, "u-asha/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	url := body["url"].(string)
	assert.Equal(t, "/media/listing-photos/"+key, url)

	req := httptest.NewRequest("GET", url, nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	served, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "jpeg-bytes", string(served))
	assert.Contains(t, resp.Header.Get("Content-Type"), "image/jpeg")

	resp, _ = env.do(t, "DELETE", "/api/v1/media/photos?key="+key, nil, withBearer(vikram))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "keys outside the caller's prefix are refused")

	resp, _ = env.do(t, "DELETE", "/api/v1/media/photos?key="+key, nil, withBearer(asha))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, err = env.app.Test(httptest.NewRequest("GET", url, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMediaRejectsWrongTypesAndTenants(t *testing.T) {
	env := newTestApp(t, generousLimits())
	asha, _ := env.signIn(t, "asha@rentspace.test")
	neha, _ := env.signIn(t, "neha@rentspace.test")

	resp, body := env.upload(t, asha, "photo", "notes.exe", "MZ")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "file", body["field"])

	resp, body = env.upload(t, asha, "video", "tour.mp4", "mp4")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "listing-videos", body["bucket"])

	resp, _ = env.upload(t, neha, "photo", "room.jpg", "x")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMediaTraversalBlocked(t *testing.T) {
	env := newTestApp(t, generousLimits())
	for _, p := range []string{
		"/media/listing-photos/%2e%2e/%2e%2e/etc/passwd",
		"/media/listing-photos/..%2f..%2fsecret",
		"/media/other-bucket/u-asha/x.jpg",
		"/media/listing-photos/u-asha/missing.jpg",
	} {
		resp, err := env.app.Test(httptest.NewRequest("GET", p, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}
