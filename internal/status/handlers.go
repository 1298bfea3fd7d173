package status

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/muurk/nsd/internal/discovery"
)

// ServicesResponse is the body of GET /services and of every WebSocket message.
type ServicesResponse struct {
	Running  bool                `json:"running"`
	Count    int                 `json:"count"`
	Services []discovery.Service `json:"services"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

func newServicesResponse(running bool, services []discovery.Service) ServicesResponse {
	if services == nil {
		services = []discovery.Service{}
	}
	return ServicesResponse{
		Running:  running,
		Count:    len(services),
		Services: services,
	}
}

func (s *Server) snapshot() ServicesResponse {
	return newServicesResponse(s.source.Running(), s.source.Services())
}

// getServices (GET /services) returns the registry, optionally filtered by
// the "name" query parameter.
func (s *Server) getServices(c echo.Context) error {
	resp := s.snapshot()
	if name := c.QueryParam("name"); name != "" {
		resp = newServicesResponse(resp.Running, filter(resp.Services, func(svc *discovery.Service) bool {
			return svc.Name == name
		}))
	}
	return c.JSON(http.StatusOK, resp)
}

// getServicesByAddress (GET /services/:address) returns the services one
// host announced. 400 on a malformed address, 404 when nothing is known.
func (s *Server) getServicesByAddress(c echo.Context) error {
	addr, err := netip.ParseAddr(c.Param("address"))
	if err != nil || !addr.Is4() {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid IPv4 address %q", c.Param("address")))
	}

	resp := s.snapshot()
	matched := filter(resp.Services, func(svc *discovery.Service) bool {
		return svc.Address == addr.String()
	})
	if len(matched) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no services from %s", addr))
	}
	return c.JSON(http.StatusOK, newServicesResponse(resp.Running, matched))
}

// getHealth (GET /healthz) reports whether the engine is running
func (s *Server) getHealth(c echo.Context) error {
	if !s.source.Running() {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "idle"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleError replies with an ErrorResponse for any error returned by a route.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "an internal server error has occurred"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("HTTP request error",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	} else {
		s.logger.Debug("HTTP request rejected",
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", code),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, ErrorResponse{Error: message})
}

func filter(services []discovery.Service, keep func(*discovery.Service) bool) []discovery.Service {
	out := make([]discovery.Service, 0, len(services))
	for i := range services {
		if keep(&services[i]) {
			out = append(out, services[i])
		}
	}
	return out
}
