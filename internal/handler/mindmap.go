package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/amtorres/mindmap-api/internal/queue"
	"github.com/amtorres/mindmap-api/internal/repository"
)

// MindMapHandler implements the mind-map CRUD endpoints. All routes sit
// behind the auth gate, and the store additionally scopes every query by
// owner. Publish, when set, receives an activity event per successful write;
// publish failures never affect the request outcome.
type MindMapHandler struct {
	Maps    MindMapStore
	Publish func(ctx context.Context, ev queue.MapActivityEvent)
}

func NewMindMapHandler(maps MindMapStore) *MindMapHandler {
	return &MindMapHandler{Maps: maps}
}

type mindMapReq struct {
	ID    uint64 `json:"id"`
	Title string `json:"titulo"`
	Data  string `json:"datos_json"`
}

// mapJSON shapes a full map record the way the frontend expects it.
func mapJSON(m repository.MindMap) echo.Map {
	return echo.Map{
		"id":                  m.ID,
		"usuario_id":          m.UserID,
		"titulo":              m.Title,
		"datos_json":          m.Data,
		"fecha_creacion":      m.CreatedAt.Format(timeLayout),
		"ultima_modificacion": m.UpdatedAt.Format(timeLayout),
	}
}

// validateMapFields checks the title length and that the document payload
// is well-formed JSON. It returns a client-facing message, or "" when valid.
// The 255 limit is the VARCHAR(255) column width, counted in characters,
// so multibyte titles are not penalized.
func validateMapFields(title, data string) string {
	if t := strings.TrimSpace(title); t == "" || utf8.RuneCountInString(title) > 255 {
		return "Title must be between 1 and 255 characters"
	}
	if !json.Valid([]byte(data)) {
		return "Invalid JSON data"
	}
	return ""
}

func (h *MindMapHandler) publish(c echo.Context, action string, mapID, userID uint64, title string) {
	if h.Publish == nil {
		return
	}
	h.Publish(c.Request().Context(), queue.NewMapActivityEvent(action, mapID, userID, title))
}

// List handles GET /api/mindmaps and GET /api/mindmaps/all; both return the
// caller's own maps, newest modification first.
func (h *MindMapHandler) List(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	maps, err := h.Maps.ListByOwner(ctx, id.UserID)
	if err != nil {
		log.Printf("mindmap: list failed for user %d: %v", id.UserID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error retrieving maps")
	}
	out := make([]echo.Map, 0, len(maps))
	for _, m := range maps {
		out = append(out, mapJSON(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"mapas": out})
}

// Get handles GET /api/mindmaps/:id.
func (h *MindMapHandler) Get(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	mapID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid map ID")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Maps.GetByIDAndOwner(ctx, mapID, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return errorJSON(c, http.StatusNotFound, "Map not found")
		}
		log.Printf("mindmap: get %d failed: %v", mapID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error retrieving maps")
	}
	return c.JSON(http.StatusOK, mapJSON(m))
}

// Create handles POST /api/mindmaps.
func (h *MindMapHandler) Create(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	var req mindMapReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateMapFields(req.Title, req.Data); msg != "" {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	mapID, err := h.Maps.Create(ctx, id.UserID, req.Title, req.Data)
	if err != nil {
		log.Printf("mindmap: create failed for user %d: %v", id.UserID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error creating map")
	}
	m, err := h.Maps.GetByIDAndOwner(ctx, mapID, id.UserID)
	if err != nil {
		log.Printf("mindmap: read-back of %d failed: %v", mapID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error creating map")
	}
	h.publish(c, queue.ActionCreated, mapID, id.UserID, req.Title)
	return c.JSON(http.StatusCreated, echo.Map{
		"id":                  m.ID,
		"usuario_id":          m.UserID,
		"titulo":              m.Title,
		"fecha_creacion":      m.CreatedAt.Format(timeLayout),
		"ultima_modificacion": m.UpdatedAt.Format(timeLayout),
		"message":             "Map created successfully",
	})
}

// Update handles PUT /api/mindmaps; the target id travels in the body.
func (h *MindMapHandler) Update(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	var req mindMapReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.ID == 0 {
		return errorJSON(c, http.StatusBadRequest, "Map ID is required for update")
	}
	if msg := validateMapFields(req.Title, req.Data); msg != "" {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Maps.Update(ctx, req.ID, id.UserID, req.Title, req.Data); err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return errorJSON(c, http.StatusNotFound, "Map not found or not owned by user")
		}
		log.Printf("mindmap: update %d failed: %v", req.ID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error updating map")
	}
	m, err := h.Maps.GetByIDAndOwner(ctx, req.ID, id.UserID)
	if err != nil {
		log.Printf("mindmap: read-back of %d failed: %v", req.ID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error updating map")
	}
	h.publish(c, queue.ActionUpdated, req.ID, id.UserID, req.Title)
	return c.JSON(http.StatusOK, echo.Map{
		"id":                  m.ID,
		"usuario_id":          m.UserID,
		"titulo":              m.Title,
		"ultima_modificacion": m.UpdatedAt.Format(timeLayout),
		"message":             "Map updated successfully",
	})
}

// Delete handles DELETE /api/mindmaps/:id.
func (h *MindMapHandler) Delete(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	mapID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid map ID")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Maps.Delete(ctx, mapID, id.UserID); err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return errorJSON(c, http.StatusNotFound, "Map not found or not owned by user")
		}
		log.Printf("mindmap: delete %d failed: %v", mapID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error deleting map")
	}
	h.publish(c, queue.ActionDeleted, mapID, id.UserID, "")
	return c.JSON(http.StatusOK, echo.Map{"id": mapID, "message": "Map deleted successfully"})
}

// DeleteMissingID answers DELETE /api/mindmaps without an id segment.
func (h *MindMapHandler) DeleteMissingID(c echo.Context) error {
	return errorJSON(c, http.StatusBadRequest, "Map ID required")
}
