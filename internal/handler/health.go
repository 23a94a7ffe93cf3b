package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// APIHealth reports status as JSON along with the environment name.
func APIHealth(env string) echo.HandlerFunc {
    return func(c echo.Context) error {
        return c.JSON(http.StatusOK, map[string]string{
            "status":      "OK",
            "message":     "Neustalgic Grooves API is running",
            "environment": env,
        })
    }
}
