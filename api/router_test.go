package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"guestbook-api/blob"
	"guestbook-api/guestbook"
	"guestbook-api/media"
	"guestbook-api/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	viper.Set("upload.max_size", int64(500<<20))
	viper.Set("guestbook.honeypot_field", "website")
	viper.Set("cache.list_media_ttl", time.Second)

	m.Run()
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	order   []string
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, name string, body io.Reader, _ blob.PutOptions) (blob.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return blob.Object{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.objects[name]; !exists {
		m.order = append(m.order, name)
	}
	m.objects[name] = data

	return blob.Object{Name: name, URL: m.ObjectURL(name), Size: int64(len(data))}, nil
}

func (m *memStore) Download(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return bytes.Clone(m.objects[name]), nil
}

func (m *memStore) List(_ context.Context) ([]blob.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	objects := []blob.Object{}
	for _, name := range m.order {
		objects = append(objects, blob.Object{
			Name: name,
			URL:  m.ObjectURL(name),
			Size: int64(len(m.objects[name])),
		})
	}

	return objects, nil
}

func (m *memStore) PresignPut(_ context.Context, name, _ string, _ time.Duration) (string, error) {
	return "https://blob.test/presigned/" + name, nil
}

func (m *memStore) ObjectURL(name string) string {
	return "https://blob.test/" + name
}

type allowAll struct{}

func (allowAll) Allow(string) (bool, error) { return true, nil }

func newTestAPI(limiter ratelimit.Store) (*API, *memStore) {
	store := newMemStore()

	return newAPI(
		guestbook.NewService(store, limiter, "guestbook.xlsx"),
		media.NewService(store, "guestbook.xlsx"),
	), store
}

func do(a *API, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGuestbookSubmitURLEncoded(t *testing.T) {
	a, store := newTestAPI(allowAll{})

	form := url.Values{}
	form.Set("name", "Ana")
	form.Set("message", "hello there")
	form.Set("timestamp", "2026-08-01T10:00:00Z")

	req := httptest.NewRequest(http.MethodPost, "/api/guestbook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := do(a, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "guestbook.xlsx", body["filename"])
	require.Equal(t, "2026-08-01T10:00:00Z", body["timestamp"])
	require.Equal(t, "https://blob.test/guestbook.xlsx", body["url"])

	require.Contains(t, store.objects, "guestbook.xlsx")

	// And the entry comes back on GET
	w = do(a, httptest.NewRequest(http.MethodGet, "/api/guestbook", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body = decode(t, w)
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	require.Equal(t, "Ana", entries[0].(map[string]any)["name"])
}

func TestGuestbookSubmitMultipart(t *testing.T) {
	a, _ := newTestAPI(allowAll{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ben"))
	require.NoError(t, mw.WriteField("message", "congrats"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/guestbook", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := do(a, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	require.Equal(t, true, body["success"])
	// No timestamp supplied, the server stamped one
	require.NotEmpty(t, body["timestamp"])

	w = do(a, httptest.NewRequest(http.MethodGet, "/api/guestbook", nil))
	entries := decode(t, w)["entries"].([]any)
	require.Len(t, entries, 1)
	require.Equal(t, "congrats", entries[0].(map[string]any)["message"])
}

func TestGuestbookHoneypot(t *testing.T) {
	a, store := newTestAPI(allowAll{})

	form := url.Values{}
	form.Set("name", "bot")
	form.Set("message", "buy stuff")
	form.Set("website", "https://spam.example")

	req := httptest.NewRequest(http.MethodPost, "/api/guestbook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := do(a, req)

	// The bot sees a success, the document is never written
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["success"])
	require.Empty(t, store.order)
}

func TestGuestbookThrottled(t *testing.T) {
	a, _ := newTestAPI(ratelimit.NewMemoryStore(time.Second))

	form := url.Values{}
	form.Set("name", "Ana")
	form.Set("message", "first")

	req := httptest.NewRequest(http.MethodPost, "/api/guestbook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, do(a, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/guestbook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := do(a, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, false, decode(t, w)["success"])
}

func TestGuestbookWrongMethod(t *testing.T) {
	a, _ := newTestAPI(allowAll{})

	w := do(a, httptest.NewRequest(http.MethodDelete, "/api/guestbook", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUploadDirect(t *testing.T) {
	a, _ := newTestAPI(allowAll{})

	payload := `{"filename":"photo.png","contentType":"image/png","size":1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := do(a, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "photo.png", body["filename"])
	require.Equal(t, "https://blob.test/photo.png", body["url"])
	require.Equal(t, "https://blob.test/presigned/photo.png", body["uploadUrl"])
	require.EqualValues(t, 500<<20, body["maxSize"])
}

func TestUploadDirectRejectsBadType(t *testing.T) {
	a, _ := newTestAPI(allowAll{})

	payload := `{"filename":"doc.pdf","contentType":"application/pdf","size":1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := do(a, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, false, decode(t, w)["success"])
}

func TestUploadProxy(t *testing.T) {
	a, store := newTestAPI(allowAll{})

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(png))
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("x-filename", "photo%20one.png")

	w := do(a, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "photo one.png", body["filename"])
	require.Equal(t, "https://blob.test/photo one.png", body["url"])
	require.EqualValues(t, len(png), body["size"])

	require.Equal(t, png, store.objects["photo one.png"])
}

func TestListMedia(t *testing.T) {
	a, store := newTestAPI(allowAll{})

	for _, name := range []string{"guestbook.xlsx", "notes.txt", "photo.JPG", "clip.mp4"} {
		store.objects[name] = []byte("x")
		store.order = append(store.order, name)
	}

	w := do(a, httptest.NewRequest(http.MethodGet, "/api/list-media", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	require.Equal(t, true, body["success"])

	items := body["media"].([]any)
	require.Len(t, items, 2)
	require.Equal(t, "photo.JPG", items[0].(map[string]any)["name"])
	require.Equal(t, "clip.mp4", items[1].(map[string]any)["name"])
}

func TestPreflight(t *testing.T) {
	a, _ := newTestAPI(allowAll{})

	req := httptest.NewRequest(http.MethodOptions, "/api/guestbook", nil)
	req.Header.Set("Origin", "https://gallery.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := do(a, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHeartbeat(t *testing.T) {
	a, _ := newTestAPI(allowAll{})

	w := do(a, httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
