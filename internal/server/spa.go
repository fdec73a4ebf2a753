package server

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"bookbnb-backend/internal/platform/apierr"
)

// spaFallback serves files from root and falls back to index.html so the
// client-side router can handle deep links. /api/* never falls through.
func spaFallback(root fs.FS) gin.HandlerFunc {
	fileFS := http.FS(root)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, apierr.Body(apierr.CodeNotFound, "Route not found"))
			return
		}
		if root == nil {
			c.Status(http.StatusNotFound)
			return
		}

		reqPath := strings.TrimPrefix(path.Clean(c.Request.URL.Path), "/")
		if reqPath == "" {
			reqPath = "index.html"
		}

		// 実ファイルがあるならそれを返す
		if serveFile(c, fileFS, reqPath) {
			return
		}
		// なければ index.html
		if serveFile(c, fileFS, "index.html") {
			return
		}
		c.Status(http.StatusNotFound)
	}
}

func serveFile(c *gin.Context, fsys http.FileSystem, name string) bool {
	f, err := fsys.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return true
	}
	if info.IsDir() {
		return false
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		c.Header("Content-Type", ct)
	}
	// index.html 以外はキャッシュ（SPAの基本運用）
	if name != "index.html" {
		c.Header("Cache-Control", "public, max-age=86400, immutable")
	}
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
	return true
}
