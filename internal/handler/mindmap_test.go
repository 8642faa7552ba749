package handler_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amtorres/mindmap-api/internal/queue"
)

const gateBody = `{"error":"Unauthorized","message":"Invalid or expired token"}`

func TestMindMaps_RequireSession(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	// Every verb on the resource surface rejects uniformly without a cookie.
	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/mindmaps"},
		{http.MethodGet, "/api/mindmaps/all"},
		{http.MethodGet, "/api/mindmaps/1"},
		{http.MethodPost, "/api/mindmaps"},
		{http.MethodPut, "/api/mindmaps"},
		{http.MethodDelete, "/api/mindmaps/1"},
		{http.MethodGet, "/api/users"},
	} {
		rec := ts.do(req.method, req.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, req.path)
		assert.JSONEq(t, gateBody, rec.Body.String(), req.path)
	}
}

func TestMindMaps_OwnershipIsolation(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	anaCookie, anaID := ts.sessionCookie(t, "Ana", "ana@x.com", "pw")
	bobCookie, _ := ts.sessionCookie(t, "Bob", "bob@x.com", "pw")

	rec := ts.do(http.MethodPost, "/api/mindmaps", `{"titulo":"Mapa de Ana","datos_json":"{\"nodes\":[]}"}`, anaCookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID     uint64 `json:"id"`
		UserID uint64 `json:"usuario_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, anaID, created.UserID)

	// Bob cannot read, update or delete Ana's map; the responses match a
	// nonexistent id exactly.
	rec = ts.do(http.MethodGet, "/api/mindmaps/1", "", bobCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPut, "/api/mindmaps", `{"id":1,"titulo":"hijacked","datos_json":"{}"}`, bobCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Map not found or not owned by user","status":404}`, rec.Body.String())

	rec = ts.do(http.MethodDelete, "/api/mindmaps/1", "", bobCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Bob's listing stays empty, Ana still sees her map.
	rec = ts.do(http.MethodGet, "/api/mindmaps", "", bobCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mapas":[]}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/mindmaps/1", "", anaCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMindMaps_CRUD(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	cookie, _ := ts.sessionCookie(t, "Ana", "ana@x.com", "pw")

	// Create.
	rec := ts.do(http.MethodPost, "/api/mindmaps", `{"titulo":"Ideas","datos_json":"{\"nodes\":[1,2]}"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID      uint64 `json:"id"`
		Title   string `json:"titulo"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Ideas", created.Title)
	assert.Equal(t, "Map created successfully", created.Message)

	// Read back includes the document payload.
	rec = ts.do(http.MethodGet, "/api/mindmaps/1", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data string `json:"datos_json"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, `{"nodes":[1,2]}`, got.Data)

	// Update.
	rec = ts.do(http.MethodPut, "/api/mindmaps", `{"id":1,"titulo":"Ideas v2","datos_json":"{}"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Map updated successfully")

	// List under both paths.
	for _, path := range []string{"/api/mindmaps", "/api/mindmaps/all"} {
		rec = ts.do(http.MethodGet, path, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var listing struct {
			Maps []map[string]any `json:"mapas"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
		require.Len(t, listing.Maps, 1, path)
		assert.Equal(t, "Ideas v2", listing.Maps[0]["titulo"], path)
	}

	// Delete, then the map is gone.
	rec = ts.do(http.MethodDelete, "/api/mindmaps/1", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"message":"Map deleted successfully"}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/mindmaps/1", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Map not found","status":404}`, rec.Body.String())
}

func TestMindMaps_Validation(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	cookie, _ := ts.sessionCookie(t, "Ana", "ana@x.com", "pw")

	longTitle := make([]byte, 256)
	for i := range longTitle {
		longTitle[i] = 'a'
	}

	cases := []struct {
		body, want string
	}{
		{`{"titulo":"","datos_json":"{}"}`, "Title must be between 1 and 255 characters"},
		{`{"titulo":"   ","datos_json":"{}"}`, "Title must be between 1 and 255 characters"},
		{`{"titulo":"` + string(longTitle) + `","datos_json":"{}"}`, "Title must be between 1 and 255 characters"},
		{`{"titulo":"ok","datos_json":"not json"}`, "Invalid JSON data"},
	}
	for _, tc := range cases {
		rec := ts.do(http.MethodPost, "/api/mindmaps", tc.body, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.want)
		assert.Contains(t, rec.Body.String(), tc.want)
	}

	// The 255 limit counts characters, not bytes: a 200-character multibyte
	// title fits even though it is 400 bytes long.
	wide := strings.Repeat("ñ", 200)
	rec := ts.do(http.MethodPost, "/api/mindmaps", `{"titulo":"`+wide+`","datos_json":"{}"}`, cookie)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, "/api/mindmaps", `{"titulo":"`+strings.Repeat("ñ", 256)+`","datos_json":"{}"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title must be between 1 and 255 characters")

	// Update without an id.
	rec = ts.do(http.MethodPut, "/api/mindmaps", `{"titulo":"ok","datos_json":"{}"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Map ID is required for update")

	// Non-numeric path ids.
	rec = ts.do(http.MethodGet, "/api/mindmaps/abc", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid map ID")

	rec = ts.do(http.MethodDelete, "/api/mindmaps/abc", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete without an id segment.
	rec = ts.do(http.MethodDelete, "/api/mindmaps", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Map ID required")
}

func TestMindMaps_PublishesActivity(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	cookie, uid := ts.sessionCookie(t, "Ana", "ana@x.com", "pw")

	require.Equal(t, http.StatusCreated,
		ts.do(http.MethodPost, "/api/mindmaps", `{"titulo":"Ideas","datos_json":"{}"}`, cookie).Code)
	require.Equal(t, http.StatusOK,
		ts.do(http.MethodPut, "/api/mindmaps", `{"id":1,"titulo":"Ideas","datos_json":"{}"}`, cookie).Code)
	require.Equal(t, http.StatusOK,
		ts.do(http.MethodDelete, "/api/mindmaps/1", "", cookie).Code)

	// A failed write publishes nothing.
	rec := ts.do(http.MethodDelete, "/api/mindmaps/99", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.Len(t, ts.events, 3)
	wantActions := []string{queue.ActionCreated, queue.ActionUpdated, queue.ActionDeleted}
	for i, ev := range ts.events {
		assert.Equal(t, wantActions[i], ev.Action)
		assert.Equal(t, uint64(1), ev.MapID)
		assert.Equal(t, uid, ev.UserID)
		assert.NotEmpty(t, ev.OccurredAt)
	}
}
