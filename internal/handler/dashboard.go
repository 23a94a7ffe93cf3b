package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// DashboardHandler serves /api/dashboard.
type DashboardHandler struct {
    Dashboard store.DashboardStore
    Now       func() time.Time
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(s store.DashboardStore) *DashboardHandler {
    return &DashboardHandler{Dashboard: s, Now: func() time.Time { return time.Now().UTC() }}
}

// Overview handles GET /api/dashboard/overview.
func (h *DashboardHandler) Overview(c echo.Context) error {
    o, err := h.Dashboard.Overview(c.Request().Context())
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, o)
}

// Monthly handles GET /api/dashboard/analytics/monthly?year=.  The year
// defaults to the current one.
func (h *DashboardHandler) Monthly(c echo.Context) error {
    year := h.Now().Year()
    if raw := c.QueryParam("year"); raw != "" {
        y, err := strconv.Atoi(raw)
        if err != nil || y < 1970 || y > 9999 {
            return c.JSON(http.StatusBadRequest, errorBody("invalid year"))
        }
        year = y
    }
    months, err := h.Dashboard.Monthly(c.Request().Context(), year)
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, months)
}
