package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz responds 200 when the database answers a ping, 503 otherwise.
func (h *HealthHandler) Healthz(c echo.Context) error {
	if err := h.db.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "db": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
