package http

import "github.com/labstack/echo/v4"

// Handler mounts one group of routes. Server.Start registers every handler it was given.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
