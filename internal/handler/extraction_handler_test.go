package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"plinvoice/internal/domain"
	"plinvoice/internal/handler"
	"plinvoice/internal/service"
	"plinvoice/mocks"
)

func setupExtractionRouter(svc service.ExtractionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewExtractionHandler(svc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/extract", h.Extract)
	v1.GET("/extractions", h.List)
	v1.GET("/extractions/:id", h.GetByID)
	v1.GET("/extractions/:id/export", h.Export)
	v1.GET("/extractions/:id/file", h.SourceFile)
	v1.DELETE("/extractions/:id", h.Delete)
	return r
}

func multipartUpload(t *testing.T, fileName, contentType, apiKey string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if apiKey != "" {
		require.NoError(t, w.WriteField("api_key", apiKey))
	}

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestExtractEndpoint_Success(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	id := uuid.New()
	svc.On("Extract", mock.Anything, mock.MatchedBy(func(req service.ExtractionRequest) bool {
		return req.FileName == "invoice.pdf" &&
			req.ContentType == "application/pdf" &&
			req.APIKey == "test-key" &&
			string(req.Content) == "%PDF-1.4 test"
	})).Return(&domain.Extraction{
		ID:       id,
		FileName: "invoice.pdf",
		Status:   domain.ExtractionStatusCompleted,
	}, nil)

	r := setupExtractionRouter(svc)

	body, contentType := multipartUpload(t, "invoice.pdf", "application/pdf", "test-key", []byte("%PDF-1.4 test"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestExtractEndpoint_MissingFile(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	r := setupExtractionRouter(svc)

	var body bytes.Buffer
	w2 := multipart.NewWriter(&body)
	require.NoError(t, w2.WriteField("api_key", "k"))
	require.NoError(t, w2.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", &body)
	req.Header.Set("Content-Type", w2.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_FILE", resp.Error.Code)
	svc.AssertNotCalled(t, "Extract")
}

func TestExtractEndpoint_MissingAPIKey(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	svc.On("Extract", mock.Anything, mock.Anything).
		Return(nil, domain.ErrMissingAPIKey)

	r := setupExtractionRouter(svc)

	body, contentType := multipartUpload(t, "invoice.pdf", "application/pdf", "", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_API_KEY", resp.Error.Code)
}

func TestExtractEndpoint_UpstreamFailure(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	svc.On("Extract", mock.Anything, mock.Anything).
		Return(nil, domain.ErrExtractionFailed)

	r := setupExtractionRouter(svc)

	body, contentType := multipartUpload(t, "invoice.pdf", "application/pdf", "k", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EXTRACTION_FAILED", resp.Error.Code)
}

func TestListEndpoint(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	svc.On("List", mock.Anything, 0, 20).
		Return([]domain.Extraction{{ID: uuid.New()}, {ID: uuid.New()}}, 2, nil)

	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
}

func TestListEndpoint_ClampsPagination(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	svc.On("List", mock.Anything, 0, 20).
		Return([]domain.Extraction{}, 0, nil)

	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions?offset=-5&limit=1000", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestGetByIDEndpoint_NotFound(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	svc.On("GetByID", mock.Anything, mock.Anything).
		Return(nil, domain.ErrNotFound)

	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetByIDEndpoint_InvalidID(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
	svc.AssertNotCalled(t, "GetByID")
}

func TestExportEndpoint_Success(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	id := uuid.New()
	svc.On("ExportXLSX", mock.Anything, id, mock.Anything).
		Run(func(args mock.Arguments) {
			w := args.Get(2).(*bytes.Buffer)
			_, _ = w.Write([]byte("PK workbook bytes"))
		}).
		Return("invoice_"+id.String()+".xlsx", nil)

	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+id.String()+"/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice_"+id.String()+".xlsx")
	assert.Equal(t, "PK workbook bytes", w.Body.String())
}

func TestExportEndpoint_NoInvoiceData(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	svc.On("ExportXLSX", mock.Anything, mock.Anything, mock.Anything).
		Return("", domain.ErrNoInvoiceData)

	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+uuid.NewString()+"/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_INVOICE_DATA", resp.Error.Code)
}

func TestSourceFileEndpoint(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	id := uuid.New()
	svc.On("SourceFileURL", mock.Anything, id).
		Return("https://signed.example/invoice.pdf", nil)

	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+id.String()+"/file", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "https://signed.example/invoice.pdf", data["url"])
}

func TestDeleteEndpoint(t *testing.T) {
	svc := &mocks.MockExtractionService{}
	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	r := setupExtractionRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/extractions/"+id.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}
