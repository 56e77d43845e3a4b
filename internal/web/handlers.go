package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/tattoo-studio/internal/catalog"
	"github.com/ironsheep/tattoo-studio/internal/compose"
	"github.com/ironsheep/tattoo-studio/internal/generate"
	"github.com/ironsheep/tattoo-studio/internal/imaging"
	"github.com/ironsheep/tattoo-studio/internal/library"
)

var (
	errBadRequest  = errors.New("bad request")
	errUnavailable = errors.New("not configured")
)

// fail maps an error to a status and aborts with {"error": "..."}.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var genErr *generate.GenerationError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, compose.ErrInvalidParams):
		status = http.StatusBadRequest
	case errors.Is(err, compose.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, library.ErrNotFound), errors.Is(err, catalog.ErrUnknownStudio):
		status = http.StatusNotFound
	case errors.Is(err, errUnavailable):
		status = http.StatusServiceUnavailable
	case errors.As(err, &genErr):
		status = http.StatusBadGateway
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"generation": a.generator != nil,
		"library":    a.designs != nil,
	})
}

func (a *API) styles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"styles":        generate.Styles,
		"default_style": generate.DefaultStyle,
		"sizes":         generate.Presets,
		"default_size":  generate.DefaultPreset,
	})
}

type generateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Style  string `json:"style"`
	Size   string `json:"size"`
}

func (a *API) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest("%v", err))
		return
	}
	if a.generator == nil {
		fail(c, fmt.Errorf("image generation %w: set STABILITY_API_KEY", errUnavailable))
		return
	}
	preset, err := generate.PresetSize(req.Size)
	if err != nil {
		fail(c, badRequest("%v", err))
		return
	}
	genReq, err := generate.Request{
		Prompt: req.Prompt,
		Style:  req.Style,
		Width:  preset.Width,
		Height: preset.Height,
	}.Normalize()
	if err != nil {
		fail(c, badRequest("%v", err))
		return
	}

	d, err := a.generator.Generate(c.Request.Context(), genReq)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"design":       d,
		"image_base64": base64.StdEncoding.EncodeToString(d.Image),
	})
}

func (a *API) listDesigns(c *gin.Context) {
	if a.designs == nil {
		fail(c, fmt.Errorf("design library %w", errUnavailable))
		return
	}
	limit := 20
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			fail(c, badRequest("invalid limit %q", s))
			return
		}
		limit = v
	}
	designs, err := a.designs.Recent(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(designs), "designs": designs})
}

// getDesign returns the design image itself.
func (a *API) getDesign(c *gin.Context) {
	if a.designs == nil {
		fail(c, fmt.Errorf("design library %w", errUnavailable))
		return
	}
	d, err := a.designs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, d.MimeType, d.Image)
}

type resolveRequest struct {
	Background compose.Size   `json:"background"`
	Design     compose.Size   `json:"design"`
	Params     compose.Params `json:"params"`
}

// resolve plans a placement from image sizes alone, so a front end can
// draw an outline while the user drags the sliders.
func (a *API) resolve(c *gin.Context) {
	req := resolveRequest{Params: compose.DefaultParams()}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest("%v", err))
		return
	}
	g, err := compose.Resolve(req.Background, req.Design, req.Params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"params": req.Params, "geometry": g})
}

// placementForm carries the placement controls of a multipart request.
// Fields left out of the form keep their defaults.
type placementForm struct {
	DesignID        string  `form:"design_id"`
	SizePercent     float64 `form:"size_percent"`
	XPercent        float64 `form:"x_percent"`
	YPercent        float64 `form:"y_percent"`
	RotationDegrees float64 `form:"rotation_degrees"`
	OpacityPercent  float64 `form:"opacity_percent"`
}

func (f placementForm) params() compose.Params {
	return compose.Params{
		SizePercent:     f.SizePercent,
		XPercent:        f.XPercent,
		YPercent:        f.YPercent,
		RotationDegrees: f.RotationDegrees,
		OpacityPercent:  f.OpacityPercent,
	}
}

func defaultPlacementForm() placementForm {
	p := compose.DefaultParams()
	return placementForm{
		SizePercent:     p.SizePercent,
		XPercent:        p.XPercent,
		YPercent:        p.YPercent,
		RotationDegrees: p.RotationDegrees,
		OpacityPercent:  p.OpacityPercent,
	}
}

// preview composites the uploaded design (or a library design) onto the
// uploaded background. It answers with the PNG, or with JSON including the
// geometry when ?format=json.
func (a *API) preview(c *gin.Context) {
	form := defaultPlacementForm()
	if err := c.ShouldBind(&form); err != nil {
		fail(c, badRequest("%v", err))
		return
	}
	p := form.params()
	// Reject bad controls before reading the uploads.
	if err := p.Validate(); err != nil {
		fail(c, err)
		return
	}

	bgData, err := readUpload(c, "background")
	if err != nil {
		fail(c, err)
		return
	}
	bg, err := compose.Decode(bgData)
	if err != nil {
		fail(c, fmt.Errorf("background: %w", err))
		return
	}
	fg, err := a.uploadedDesign(c, form.DesignID)
	if err != nil {
		fail(c, err)
		return
	}

	data, g, err := a.render(bg, fg, p)
	if err != nil {
		fail(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{
			"width":        bg.Bounds().Dx(),
			"height":       bg.Bounds().Dy(),
			"params":       p,
			"geometry":     g,
			"image_base64": base64.StdEncoding.EncodeToString(data),
			"mime_type":    "image/png",
		})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (a *API) render(bg, fg *image.NRGBA, p compose.Params) ([]byte, compose.Geometry, error) {
	if a.renders != nil {
		return a.renders.Render(bg, fg, p)
	}
	out, g, err := compose.Render(bg, fg, p)
	if err != nil {
		return nil, compose.Geometry{}, err
	}
	data, err := compose.EncodePNG(out)
	if err != nil {
		return nil, compose.Geometry{}, err
	}
	return data, g, nil
}

type stencilForm struct {
	DesignID    string  `form:"design_id"`
	BlurRadius  float64 `form:"blur_radius"`
	Threshold   int     `form:"threshold"`
	LineWeight  float64 `form:"line_weight"`
	Transparent bool    `form:"transparent"`
}

func (a *API) stencil(c *gin.Context) {
	def := imaging.DefaultStencilOptions()
	form := stencilForm{
		BlurRadius: def.BlurRadius,
		Threshold:  int(def.Threshold),
		LineWeight: def.LineWeight,
	}
	if err := c.ShouldBind(&form); err != nil {
		fail(c, badRequest("%v", err))
		return
	}
	if form.Threshold < 0 || form.Threshold > 255 {
		fail(c, badRequest("threshold %d outside [0, 255]", form.Threshold))
		return
	}

	design, err := a.uploadedDesign(c, form.DesignID)
	if err != nil {
		fail(c, err)
		return
	}
	st, err := imaging.Stencil(design, imaging.StencilOptions{
		BlurRadius:  form.BlurRadius,
		Threshold:   uint8(form.Threshold),
		LineWeight:  form.LineWeight,
		Transparent: form.Transparent,
	})
	if err != nil {
		fail(c, badRequest("%v", err))
		return
	}
	data, err := compose.EncodePNG(st.Image())
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("X-Stencil-Line-Percent", strconv.FormatFloat(st.LinePercent, 'f', 2, 64))
	c.Data(http.StatusOK, "image/png", data)
}

// uploadedDesign reads the "design" upload, or the library design named by
// id when no file is sent.
func (a *API) uploadedDesign(c *gin.Context, id string) (*image.NRGBA, error) {
	if id == "" {
		data, err := readUpload(c, "design")
		if err != nil {
			return nil, err
		}
		img, err := compose.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("design: %w", err)
		}
		return img, nil
	}
	if a.designs == nil {
		return nil, fmt.Errorf("design library %w", errUnavailable)
	}
	d, err := a.designs.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return compose.Decode(d.Image)
}

func readUpload(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, badRequest("missing %s upload", field)
	}
	if fh.Size > maxUploadBytes {
		return nil, badRequest("%s upload is larger than %d bytes", field, maxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s upload: %w", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload: %w", field, err)
	}
	return data, nil
}

func (a *API) studios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"studios": catalog.Studios})
}

func (a *API) studioQR(c *gin.Context) {
	size := 256
	if s := c.Query("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			fail(c, badRequest("invalid size %q", s))
			return
		}
		size = v
	}
	// Check the studio first so an unknown id is a 404, not a size error.
	if _, err := catalog.Studio(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	png, err := catalog.BookingQR(c.Param("id"), size)
	if err != nil {
		fail(c, badRequest("%v", err))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (a *API) gallery(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": catalog.Gallery})
}
