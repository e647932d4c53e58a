package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plinvoice/internal/handler"
	"plinvoice/internal/ncm"
	"plinvoice/internal/port"
)

func setupNCMRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	lookup := ncm.NewLookup([]port.NCMEntry{
		{Code: "84", Description: "Reatores nucleares, caldeiras, máquinas"},
		{Code: "8409", Description: "Partes para motores"},
		{Code: "840999", Description: "Outras"},
		{Code: "84099912", Description: "Bielas"},
	})
	h := handler.NewNCMHandler(lookup)

	r := gin.New()
	group := r.Group("/api/v1/ncm")
	group.GET("/search", h.Search)
	group.GET("/:code", h.GetByCode)
	group.GET("/:code/hierarchy", h.Hierarchy)
	return r
}

func TestNCMSearchEndpoint(t *testing.T) {
	r := setupNCMRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ncm/search?term=motores", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    []ncm.Match `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "8409", resp.Data[0].Code)
}

func TestNCMGetByCodeEndpoint(t *testing.T) {
	r := setupNCMRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ncm/8409.99.12", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Bielas", data["description"])
}

func TestNCMGetByCodeEndpoint_NotFound(t *testing.T) {
	r := setupNCMRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ncm/99999999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NCM_NOT_FOUND", resp.Error.Code)
}

func TestNCMHierarchyEndpoint(t *testing.T) {
	r := setupNCMRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ncm/84099912/hierarchy", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    []ncm.Level `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 4)
	assert.Equal(t, "Capítulo", resp.Data[0].Level)
	assert.Equal(t, "Item", resp.Data[3].Level)
}
