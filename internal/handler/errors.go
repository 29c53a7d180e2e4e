package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/ledger"
    "github.com/iliyamo/soulspace-ledger/internal/logging"
)

// writeError maps ledger errors onto status codes. Validation messages are
// passed through; storage details are logged and hidden.
func writeError(c echo.Context, log logging.Logger, err error) error {
    switch {
    case errors.Is(err, ledger.ErrUnauthorizedUser):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    case errors.Is(err, ledger.ErrInvalidEntry),
        errors.Is(err, ledger.ErrInvalidStats),
        errors.Is(err, ledger.ErrInvalidQuote):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    default:
        log.Error(c.Request().Context(), "request failed", "path", c.Path(), "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
