package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/png-diff-server/internal/database"
	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/decoder"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/differ"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/fetcher"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/kafka"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/storage"
	"github.com/ds124wfegd/png-diff-server/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostInfo = "http://localhost:8080/"

func init() {
	gin.SetMode(gin.TestMode)
}

func solidPNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newSourceServer plays the remote host the inputs are fetched from
func newSourceServer(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string][]byte{
		"/a.png":   solidPNG(t, 10, 10, color.RGBA{R: 255, A: 255}),
		"/b.png":   solidPNG(t, 10, 10, color.RGBA{G: 255, A: 255}),
		"/doc.txt": []byte("plain text, not an image"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(t *testing.T, root string) *gin.Engine {
	t.Helper()
	svc := service.NewDiffService(
		fetcher.NewFetcher(nil),
		decoder.NewDecoder(),
		differ.NewLCSDiffer(),
		database.NewArtifactRepository(storage.NewFileStorage(root), strings.TrimPrefix(AssetsRoute, "/")),
		kafka.NewLogProducer(),
		service.DiffServiceConfig{HostInfo: hostInfo, Mode: differ.ModeLCS},
	)
	return InitRoutes(NewDiffHandler(svc), RouterConfig{StaticDir: root, RequestTimeout: 30 * time.Second})
}

func postDiff(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/diff", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func diffBodyFor(before, after string) string {
	data, _ := json.Marshal(map[string]string{"before_png": before, "after_png": after})
	return string(data)
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if e.Name() != storage.StagingDir {
			n++
		}
	}
	return n
}

func TestCreateDiffSuccess(t *testing.T) {
	src := newSourceServer(t)
	root := t.TempDir()
	router := newRouter(t, root)

	w := postDiff(router, diffBodyFor(src.URL+"/a.png", src.URL+"/b.png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res entity.DiffResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, strings.HasPrefix(res.ResultURL, hostInfo+"assets/"), res.ResultURL)
	assert.True(t, strings.HasSuffix(res.ResultURL, ".png"))
	assert.Equal(t, 1, countFiles(t, root))

	// the artifact is reachable through the assets route
	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/"+strings.TrimPrefix(res.ResultURL, hostInfo), nil))
	require.Equal(t, http.StatusOK, get.Code)

	img, err := png.Decode(get.Body)
	require.NoError(t, err)
	assert.False(t, img.Bounds().Empty())
}

func TestCreateDiffTwiceGivesTwoArtifacts(t *testing.T) {
	src := newSourceServer(t)
	root := t.TempDir()
	router := newRouter(t, root)
	body := diffBodyFor(src.URL+"/a.png", src.URL+"/b.png")

	first := postDiff(router, body)
	second := postDiff(router, body)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	assert.NotEqual(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 2, countFiles(t, root))
}

func TestCreateDiffErrors(t *testing.T) {
	src := newSourceServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "before not found",
			body:       diffBodyFor(src.URL+"/missing.png", src.URL+"/b.png"),
			wantStatus: http.StatusNotFound,
			wantError:  "Input not found",
		},
		{
			name:       "after unreachable",
			body:       diffBodyFor(src.URL+"/a.png", "http://127.0.0.1:1/b.png"),
			wantStatus: http.StatusNotFound,
			wantError:  "Input not found",
		},
		{
			name:       "malformed url",
			body:       diffBodyFor("not a url", src.URL+"/b.png"),
			wantStatus: http.StatusNotFound,
			wantError:  "Input not found",
		},
		{
			name:       "empty url",
			body:       diffBodyFor("", src.URL+"/b.png"),
			wantStatus: http.StatusNotFound,
			wantError:  "Input not found",
		},
		{
			name:       "not an image",
			body:       diffBodyFor(src.URL+"/a.png", src.URL+"/doc.txt"),
			wantStatus: http.StatusUnsupportedMediaType,
			wantError:  "Only supports image/png",
		},
		{
			name:       "missing field",
			body:       `{"before_png": "http://host/a.png"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
		},
		{
			name:       "not json",
			body:       `before_png=a`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			w := postDiff(newRouter(t, root), tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			var res entity.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.wantError, res.Error)
			assert.Equal(t, 0, countFiles(t, root))
		})
	}
}

type stubService struct {
	err error
}

func (s stubService) Diff(context.Context, entity.DiffRequest) (*entity.DiffResponse, error) {
	return nil, s.err
}

func (stubService) Close() error { return nil }

func TestCreateDiffInternalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"classified internal", entity.Internal("persist", errors.New("disk full"))},
		{"unclassified", errors.New("surprise")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := InitRoutes(NewDiffHandler(stubService{err: tt.err}), RouterConfig{StaticDir: t.TempDir()})
			w := postDiff(router, diffBodyFor("http://a", "http://b"))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestCORS(t *testing.T) {
	router := InitRoutes(NewDiffHandler(stubService{}), RouterConfig{StaticDir: t.TempDir()})

	req := httptest.NewRequest(http.MethodOptions, "/api/diff", nil)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAssetsMissing(t *testing.T) {
	router := InitRoutes(NewDiffHandler(stubService{}), RouterConfig{StaticDir: t.TempDir()})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/nope.png", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	router := InitRoutes(NewDiffHandler(stubService{}), RouterConfig{StaticDir: t.TempDir()})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"png-diff-server"}`, w.Body.String())
}

func TestIndexFallback(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IndexFile), []byte("<html>diff viewer</html>"), 0644))
	router := InitRoutes(NewDiffHandler(stubService{}), RouterConfig{StaticDir: root})

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{name: "root", method: http.MethodGet, path: "/", wantCode: http.StatusOK, wantBody: "diff viewer"},
		{name: "front-end route", method: http.MethodGet, path: "/compare/42", wantCode: http.StatusOK, wantBody: "diff viewer"},
		{name: "missing asset", method: http.MethodGet, path: "/assets/nope.png", wantCode: http.StatusNotFound, wantBody: "Not found"},
		{name: "unknown api route", method: http.MethodGet, path: "/api/nope", wantCode: http.StatusNotFound, wantBody: "Not found"},
		{name: "post to unknown route", method: http.MethodPost, path: "/compare/42", wantCode: http.StatusNotFound, wantBody: "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestIndexMissing(t *testing.T) {
	router := InitRoutes(NewDiffHandler(stubService{}), RouterConfig{StaticDir: t.TempDir()})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssetsHideStagingFiles(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, storage.StagingDir)
	require.NoError(t, os.MkdirAll(staging, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, ".upload-1"), []byte("half written"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "done.png"), []byte("x"), 0644))
	router := InitRoutes(NewDiffHandler(stubService{}), RouterConfig{StaticDir: root})

	for _, path := range []string{
		AssetsRoute + "/" + storage.StagingDir + "/.upload-1",
		AssetsRoute + "/.hidden.png",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.NotContains(t, w.Body.String(), "half written")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, AssetsRoute+"/done.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
