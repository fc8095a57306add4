package transport

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/ds124wfegd/png-diff-server/internal/transport/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

const (
	AssetsRoute = "/assets"
	// IndexFile is the front-end entry point looked up in the static dir.
	IndexFile = "index.html"
)

type RouterConfig struct {
	StaticDir      string
	RequestTimeout time.Duration
}

func InitRoutes(diffHandler *DiffHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	router.Use(static.Serve(AssetsRoute, assetFS{static.LocalFile(cfg.StaticDir, false)}))

	api := router.Group("/api")
	{
		api.POST("/diff", diffHandler.CreateDiff)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "png-diff-server",
		})
	})

	index := serveIndex(filepath.Join(cfg.StaticDir, IndexFile))
	router.GET("/", index)
	router.NoRoute(index)
	return router
}

// assetFS hides dot-prefixed names, such as the storage staging dir, from
// the assets route.
type assetFS struct {
	static.ServeFileSystem
}

func (fs assetFS) Exists(prefix, path string) bool {
	for _, part := range strings.Split(strings.TrimPrefix(path, prefix), "/") {
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	return fs.ServeFileSystem.Exists(prefix, path)
}

// serveIndex answers front-end routes with the index page. Unknown api and
// asset paths stay 404 so a missing artifact is never masked by html.
func serveIndex(indexPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method
		if (method != http.MethodGet && method != http.MethodHead) ||
			path == AssetsRoute || strings.HasPrefix(path, AssetsRoute+"/") ||
			path == "/api" || strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Not found"})
			return
		}

		info, err := os.Stat(indexPath)
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Not found"})
			return
		}
		c.File(indexPath)
	}
}
