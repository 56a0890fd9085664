package reconciliation

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Feature is the reconciliation module of the HTTP server.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the reconciliation feature.
func NewFeature(service *Service, timeout time.Duration) *Feature {
	return &Feature{service: service, handler: NewHandler(service, timeout)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reconciliation"
}

// IsEnabled reports whether the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.service != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
