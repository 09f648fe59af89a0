package api

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"depot/internal/server/database"
	"depot/internal/server/service"

	"github.com/labstack/echo/v4"
)

// StatsSource provides the collection counts behind GET /stats.
type StatsSource interface {
	CountUsers(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)
}

// HealthChecker reports database liveness for GET /status.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SessionChecker reports session store liveness for GET /status.
type SessionChecker interface {
	Alive() bool
}

// Handler contains the HTTP handlers for the depot API.
type Handler struct {
	auth     *service.AuthService
	files    *service.FileService
	stats    StatsSource
	db       HealthChecker
	sessions SessionChecker
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(auth *service.AuthService, files *service.FileService, stats StatsSource, db HealthChecker, sessions SessionChecker) *Handler {
	return &Handler{
		auth:     auth,
		files:    files,
		stats:    stats,
		db:       db,
		sessions: sessions,
	}
}

// currentUser returns the user stored on the context by TokenAuth.
func currentUser(c echo.Context) *database.User {
	user, _ := c.Get(userKey).(*database.User)
	return user
}

// HandleRegister handles POST /users.
func (h *Handler) HandleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	user, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// HandleConnect handles GET /connect. Verifies Basic credentials and mints
// a session token.
func (h *Handler) HandleConnect(c echo.Context) error {
	token, err := h.auth.Connect(c.Request().Context(), c.Request().Header.Get("Authorization"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// HandleDisconnect handles GET /disconnect. Revokes the presented token.
func (h *Handler) HandleDisconnect(c echo.Context) error {
	if err := h.auth.Disconnect(c.Request().Context(), c.Request().Header.Get(TokenHeader)); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleMe handles GET /users/me.
func (h *Handler) HandleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, toUserResponse(currentUser(c)))
}

// HandleCreateFile handles POST /files.
func (h *Handler) HandleCreateFile(c echo.Context) error {
	var req createFileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	var content []byte
	if req.Type != database.TypeFolder {
		decoded, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil || len(decoded) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing data"})
		}
		content = decoded
	}

	file, err := h.files.Create(c.Request().Context(), currentUser(c).ID, service.CreateFileInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID.Ref(),
		IsPublic: req.IsPublic,
		Data:     content,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, toFileResponse(file))
}

// HandleGetFile handles GET /files/:id.
func (h *Handler) HandleGetFile(c echo.Context) error {
	file, err := h.files.Get(c.Request().Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toFileResponse(file))
}

// HandleListFiles handles GET /files?parentId&page.
func (h *Handler) HandleListFiles(c echo.Context) error {
	parentID := parseParentID(c.QueryParam("parentId"))
	page, _ := strconv.Atoi(c.QueryParam("page"))

	files, err := h.files.List(c.Request().Context(), currentUser(c).ID, parentID, page)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toFileResponses(files))
}

// HandlePublish handles PUT /files/:id/publish.
func (h *Handler) HandlePublish(c echo.Context) error {
	return h.setVisibility(c, true)
}

// HandleUnpublish handles PUT /files/:id/unpublish.
func (h *Handler) HandleUnpublish(c echo.Context) error {
	return h.setVisibility(c, false)
}

func (h *Handler) setVisibility(c echo.Context, isPublic bool) error {
	file, err := h.files.SetVisibility(c.Request().Context(), currentUser(c).ID, c.Param("id"), isPublic)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toFileResponse(file))
}

// HandleFileData handles GET /files/:id/data?size. The token is optional
// here: anonymous requests can still read public files.
func (h *Handler) HandleFileData(c echo.Context) error {
	requestorID := ""
	if token := c.Request().Header.Get(TokenHeader); token != "" {
		if user, err := h.auth.Resolve(c.Request().Context(), token); err == nil {
			requestorID = user.ID
		}
	}

	size, _ := strconv.Atoi(c.QueryParam("size"))

	data, file, err := h.files.ReadContent(c.Request().Context(), requestorID, c.Param("id"), size)
	if err != nil {
		return mapServiceError(c, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(file.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, contentType, data)
}

// HandleStatus handles GET /status. Reports liveness of the backing stores.
func (h *Handler) HandleStatus(c echo.Context) error {
	dbAlive := h.db.HealthCheck(c.Request().Context()) == nil
	return c.JSON(http.StatusOK, echo.Map{
		"db":      dbAlive,
		"session": h.sessions.Alive(),
	})
}

// HandleStats handles GET /stats. Returns collection counts.
func (h *Handler) HandleStats(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.stats.CountUsers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve stats"})
	}
	files, err := h.stats.CountFiles(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": users,
		"files": files,
	})
}

// validationMessages maps DTO fields to the API's error messages.
var validationMessages = map[string]string{
	"Email":    "Missing email",
	"Password": "Missing password",
	"Name":     "Missing name",
	"Type":     "Missing or invalid type",
	"Data":     "Missing data",
}

// validationError translates the first failed DTO field into the contract's
// error message.
func validationError(c echo.Context, err error) error {
	if msg, ok := validationMessages[firstInvalidField(err)]; ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

// mapServiceError translates service-layer errors into HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	case errors.Is(err, service.ErrMissingEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing email"})
	case errors.Is(err, service.ErrMissingPassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing password"})
	case errors.Is(err, service.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Already exist"})
	case errors.Is(err, service.ErrMissingName):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing name"})
	case errors.Is(err, service.ErrInvalidType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing or invalid type"})
	case errors.Is(err, service.ErrMissingData):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing data"})
	case errors.Is(err, service.ErrParentNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Parent not found"})
	case errors.Is(err, service.ErrParentNotFolder):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Parent is not a folder"})
	case errors.Is(err, service.ErrFolderHasNoContent):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "A folder doesn't have content"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
	default:
		slog.Error("request failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
