package maps

import (
	apphttp "departure_finder/internal/http"
	"departure_finder/platform/config"
	"departure_finder/platform/logger"
)

// Module wires the address lookup HTTP routes.
type Module struct {
	handler *Handler
	svc     *Service
}

func NewModule(cfg config.GeocoderConfig, log *logger.Logger) *Module {
	svc := NewService(cfg, log)
	h := NewHandler(svc)
	return &Module{handler: h, svc: svc}
}

// Service returns the geocoding service for other modules.
func (m *Module) Service() *Service {
	return m.svc
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/maps")
	group.GET("/address-lookup", m.handler.LookupAddress)
}

var _ apphttp.Module = (*Module)(nil)
