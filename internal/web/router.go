// Package web serves the tattoo studio over HTTP for browser front ends.
package web

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/tattoo-studio/internal/compose"
	"github.com/ironsheep/tattoo-studio/internal/generate"
)

// maxUploadBytes bounds a single uploaded image.
const maxUploadBytes = 20 << 20

// Designs is the read side of the design library.
type Designs interface {
	Get(ctx context.Context, id string) (*generate.Design, error)
	Recent(ctx context.Context, limit int) ([]*generate.Design, error)
}

// API holds what the HTTP handlers need. A nil generator or library turns
// the routes that need them into 503s.
type API struct {
	generator generate.Generator
	designs   Designs
	renders   *compose.RenderCache
}

// NewAPI creates the handlers. renders may be nil, in which case previews
// are not cached.
func NewAPI(gen generate.Generator, designs Designs, renders *compose.RenderCache) *API {
	return &API{generator: gen, designs: designs, renders: renders}
}

// RegisterRoutes mounts the API under /api.
func (a *API) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", a.health)
		api.GET("/styles", a.styles)
		api.POST("/generate", a.generate)
		api.GET("/designs", a.listDesigns)
		api.GET("/designs/:id", a.getDesign)
		api.POST("/resolve", a.resolve)
		api.POST("/preview", a.preview)
		api.POST("/stencil", a.stencil)
		api.GET("/studios", a.studios)
		api.GET("/studios/:id/qr", a.studioQR)
		api.GET("/gallery", a.gallery)
	}
}

// NewRouter returns an engine with request logging and panic recovery and
// the API mounted.
func NewRouter(a *API) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Writer()), gin.Recovery())
	r.MaxMultipartMemory = 2 * maxUploadBytes
	a.RegisterRoutes(r)
	return r
}
