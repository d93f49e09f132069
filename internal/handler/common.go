package handler // handler defines http handlers

import (
    "errors"   // errors provides sentinel values used in getUserID
    "net/http" // HTTP status codes
    "strconv"  // strconv converts path parameters

    "github.com/labstack/echo/v4" // echo defines request context types
    "go.uber.org/zap"             // structured logging for 5xx responses

    "github.com/iliyamo/eventify/internal/middleware" // identity helpers set by JWTAuth
    "github.com/iliyamo/eventify/internal/repository" // sentinel errors
    "github.com/iliyamo/eventify/internal/service"    // error classification
)

// getUserID extracts the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c)
    if !ok || id == 0 {
        return 0, errors.New("invalid user_id in context")
    }
    return id, nil
}

// actorFrom builds the service actor from the request identity.
func actorFrom(c echo.Context) (service.Actor, error) {
    id, err := getUserID(c)
    if err != nil {
        return service.Actor{}, err
    }
    return service.Actor{ID: id, Role: middleware.Role(c)}, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// fail writes the common error body.
func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "message": msg})
}

func unauthorized(c echo.Context) error {
    return fail(c, http.StatusUnauthorized, "unauthorized")
}

// respondError maps a service error onto its HTTP status.  Only 5xx
// responses carry the internal error text, and they are logged.
func respondError(c echo.Context, log *zap.Logger, err error) error {
    switch {
    case service.IsValidationError(err):
        return fail(c, http.StatusBadRequest, err.Error())
    case service.IsNotFoundError(err):
        return fail(c, http.StatusNotFound, err.Error())
    case service.IsForbiddenError(err):
        return fail(c, http.StatusForbidden, "you are not allowed to access this booking")
    case errors.Is(err, repository.ErrConflict):
        return fail(c, http.StatusConflict, "the booking was modified concurrently, please retry")
    case service.IsConflictError(err):
        return fail(c, http.StatusConflict, err.Error())
    }
    log.Error("request failed",
        zap.String("request_id", middleware.GetRequestID(c)),
        zap.String("route", c.Path()),
        zap.Error(err))
    return c.JSON(http.StatusInternalServerError, echo.Map{
        "success": false,
        "message": "internal server error",
        "error":   err.Error(),
    })
}
