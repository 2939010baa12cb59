package finder

import (
	apphttp "departure_finder/internal/http"
	"departure_finder/platform/config"
	"departure_finder/platform/logger"
	"departure_finder/platform/validator"
)

// ModuleConfig is the configuration the finder module reads.
type ModuleConfig interface {
	config.DeparturesConfig
	config.MapConfig
	config.SessionConfig
}

// Module wires the map search page and its session API.
type Module struct {
	handler *Handler
	page    *Page
}

func NewModule(cfg ModuleConfig, searcher Searcher, geocoder Geocoder, val *validator.Validator, log *logger.Logger) *Module {
	factory := func() *Controller {
		return NewController(Deps{
			Searcher:  searcher,
			Validator: val,
			Location:  cfg.GetDisplayLocation(),
			Logger:    log,
		})
	}
	sessions := NewSessionStore(cfg.GetSessionCapacity(), cfg.GetSessionTTL(), factory)

	return &Module{
		handler: NewHandler(sessions, geocoder),
		page:    NewPage(cfg),
	}
}

func (m *Module) Name() string {
	return "finder"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.GET("/", m.page.Index)
	ctx.Engine.GET("/static/app.js", m.page.Script)

	group := ctx.Session.Group("/finder")
	group.GET("/state", m.handler.GetState)
	group.GET("/markers", m.handler.GetMarkers)
	group.POST("/map-clicks", m.handler.ClickMap)
	group.POST("/markers/:role/click", m.handler.ClickMarker)
	group.PUT("/limit", m.handler.SetLimit)
	group.PUT("/departure-time", m.handler.SetDepartureTime)
	group.POST("/debug/toggle", m.handler.ToggleDebug)
	group.POST("/search", ctx.SearchRateLimiter.RateLimitWith(m.handler.SearchRateLimited), m.handler.Search)
	group.POST("/points/:role/address", m.handler.PlaceAddress)
}

var _ apphttp.Module = (*Module)(nil)
