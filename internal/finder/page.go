package finder

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"departure_finder/platform/config"

	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var indexHTML string

//go:embed web/app.js
var appJS []byte

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	CenterLat       float64
	CenterLng       float64
	Zoom            int
	TileURL         string
	TileAttribution string
	Instructions    []string
	MinLimit        int
	MaxLimit        int
}

// Page serves the map view and its script.
type Page struct {
	data pageData
}

func NewPage(cfg config.MapConfig) *Page {
	lat, lng := cfg.GetMapCenter()
	return &Page{data: pageData{
		CenterLat:       lat,
		CenterLng:       lng,
		Zoom:            cfg.GetMapZoom(),
		TileURL:         cfg.GetMapTileURL(),
		TileAttribution: cfg.GetMapTileAttribution(),
		Instructions:    Instructions,
		MinLimit:        MinLimit,
		MaxLimit:        MaxLimit,
	}}
}

// Index handles GET /
func (p *Page) Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, p.data); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Script handles GET /static/app.js
func (p *Page) Script(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", appJS)
}
