package main

import (
	"io/fs"
	"path"
	"strings"

	"github.com/Brownie44l1/corehttp/internal/request"
	"github.com/Brownie44l1/corehttp/internal/response"
	"github.com/Brownie44l1/corehttp/internal/router"
)

const staticPrefix = "/static/"

var staticTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".txt":  "text/plain",
	".svg":  "image/svg+xml",
	".png":  "image/png",
}

// staticHandler serves files below /static/ out of files
func staticHandler(files fs.FS) router.HandlerFunc {
	return func(req *request.Request, res *response.Response) {
		name := strings.TrimPrefix(req.Path, staticPrefix)
		// fs.FS rejects "..", absolute and empty names
		if !fs.ValidPath(name) || name == "." {
			notFound(res)
			return
		}

		content, err := fs.ReadFile(files, name)
		if err != nil {
			notFound(res)
			return
		}

		contentType, ok := staticTypes[path.Ext(name)]
		if !ok {
			contentType = "application/octet-stream"
		}
		_ = res.Type(contentType)
		if !strings.HasPrefix(contentType, "text/") && contentType != "application/javascript" && contentType != "application/json" {
			_ = res.Charset("")
		}
		_, _ = res.Write(content)
		_ = res.Send()
	}
}

func notFound(res *response.Response) {
	_ = res.Status(response.StatusNotFound)
	_ = res.SendString("File not found")
}
