package documents_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docsight-backend/internal/bootstrap"
	"docsight-backend/internal/shared/config"
)

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		BlobStoreType:   "local",
		BlobStoreDir:    t.TempDir(),
		StagingDir:      t.TempDir(),
		LLMProvider:     "placeholder",
		Env:             "dev",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func buildDocx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	xmlBody := fmt.Sprintf(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:body></w:document>`, text)
	if _, err := w.Write([]byte(xmlBody)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func multipartUpload(t *testing.T, fileName string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", docxMime)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uploadDocument(t *testing.T, router *gin.Engine, guestID, fileName string, payload []byte) string {
	t.Helper()
	body, contentType := multipartUpload(t, fileName, payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.DocumentID == "" {
		t.Fatal("expected documentId, got empty")
	}
	return created.DocumentID
}

func TestUploadAnalyzeDownloadFlow(t *testing.T) {
	router := newTestRouter(t)
	guestID := uuid.NewString()
	payload := buildDocx(t, "Quarterly revenue grew by twelve percent.")

	docID := uploadDocument(t, router, guestID, "report.docx", payload)

	// Analyze.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+docID+"/analyze", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var analyzed struct {
		Summary  *string  `json:"summary"`
		Insights []string `json:"insights"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		t.Fatalf("decode analyze response: %v", err)
	}
	if analyzed.Summary == nil || *analyzed.Summary == "" {
		t.Error("expected non-empty summary after analyze")
	}
	if len(analyzed.Insights) == 0 {
		t.Error("expected non-empty insights after analyze")
	}

	// Extraction history.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID+"/extractions", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("history status = %d", resp.Code)
	}
	var history struct {
		Extractions []struct {
			ExtractionID string `json:"extractionId"`
		} `json:"extractions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history response: %v", err)
	}
	if len(history.Extractions) != 1 {
		t.Errorf("got %d extraction records, want 1", len(history.Extractions))
	}

	// Download returns the original bytes.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID+"/download", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("download status = %d", resp.Code)
	}
	if !bytes.Equal(resp.Body.Bytes(), payload) {
		t.Errorf("downloaded %d bytes, want the uploaded %d bytes", resp.Body.Len(), len(payload))
	}
	if got := resp.Header().Get("Content-Disposition"); got == "" {
		t.Error("missing Content-Disposition header")
	}
}

func TestDocumentListScopedToOwner(t *testing.T) {
	router := newTestRouter(t)
	owner := uuid.NewString()
	other := uuid.NewString()
	uploadDocument(t, router, owner, "mine.docx", buildDocx(t, "mine"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("X-Guest-Id", other)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var listed struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Documents) != 0 {
		t.Errorf("other owner sees %d documents, want 0", len(listed.Documents))
	}
}

func TestDocumentListLimitParam(t *testing.T) {
	router := newTestRouter(t)
	owner := uuid.NewString()
	uploadDocument(t, router, owner, "first.docx", buildDocx(t, "first"))
	uploadDocument(t, router, owner, "second.docx", buildDocx(t, "second"))

	listLen := func(query string) int {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents"+query, nil)
		req.Header.Set("X-Guest-Id", owner)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("list%s status = %d", query, resp.Code)
		}
		var listed struct {
			Documents []json.RawMessage `json:"documents"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
			t.Fatalf("decode list response: %v", err)
		}
		return len(listed.Documents)
	}

	if got := listLen("?limit=1"); got != 1 {
		t.Errorf("limit=1 returned %d documents, want 1", got)
	}
	// Zero and negative limits mean the default page size, not an empty page.
	if got := listLen("?limit=0"); got != 2 {
		t.Errorf("limit=0 returned %d documents, want 2", got)
	}
	if got := listLen("?limit=-5"); got != 2 {
		t.Errorf("limit=-5 returned %d documents, want 2", got)
	}
}

func TestForeignDocumentLooksAbsent(t *testing.T) {
	router := newTestRouter(t)
	owner := uuid.NewString()
	docID := uploadDocument(t, router, owner, "secret.docx", buildDocx(t, "secret"))

	for _, path := range []string{
		"/api/v1/documents/" + docID,
		"/api/v1/documents/" + docID + "/download",
		"/api/v1/documents/" + docID + "/extractions",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Guest-Id", uuid.NewString())
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, resp.Code)
		}
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if body.Error.Code != "not_found" || body.Error.Message != "document not found" {
			t.Errorf("%s error body = %+v, want the generic not-found body", path, body.Error)
		}
	}
}

func TestUploadMissingFileRejected(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=empty")
	req.Header.Set("X-Guest-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestUploadRequiresIdentity(t *testing.T) {
	router := newTestRouter(t)
	body, contentType := multipartUpload(t, "report.docx", buildDocx(t, "text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestDeleteDocumentRemovesIt(t *testing.T) {
	router := newTestRouter(t)
	guestID := uuid.NewString()
	docID := uploadDocument(t, router, guestID, "trash.docx", buildDocx(t, "obsolete"))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+docID, nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID, nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.Code)
	}
}
