package account_test

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
	sharedauth "docsight-backend/internal/shared/auth"
	"docsight-backend/internal/shared/config"
)

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func buildApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

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
	return app
}

func uploadAsGuest(t *testing.T, router *gin.Engine, guestID string) {
	t.Helper()
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	fmt.Fprint(w, `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>guest draft</w:t></w:r></w:p></w:body></w:document>`)
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="draft.docx"`)
	header.Set("Content-Type", docxMime)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(zipBuf.Bytes()); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", resp.Code, resp.Body.String())
	}
}

func TestClaimGuestMovesDocuments(t *testing.T) {
	app := buildApp(t)
	guestID := uuid.NewString()
	uploadAsGuest(t, app.Router, guestID)

	token, err := sharedauth.SignJWT("google:user-1", "user@example.com", "Test User", "")
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("claim status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var result struct {
		MigratedDocuments int `json:"migratedDocuments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode claim response: %v", err)
	}
	if result.MigratedDocuments != 1 {
		t.Errorf("MigratedDocuments = %d, want 1", result.MigratedDocuments)
	}

	// The authenticated user now sees the claimed document.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var listed struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Documents) != 1 {
		t.Errorf("claimed owner sees %d documents, want 1", len(listed.Documents))
	}
}

func TestClaimGuestRequiresLogin(t *testing.T) {
	app := buildApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("X-Guest-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestDeleteAccountRemovesDocuments(t *testing.T) {
	app := buildApp(t)
	guestID := uuid.NewString()
	uploadAsGuest(t, app.Router, guestID)

	token, err := sharedauth.SignJWT("google:user-2", "user2@example.com", "Another User", "")
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	// Claim the guest upload first so the account owns something.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("claim status = %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/account", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete account status = %d, body = %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	var listed struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Documents) != 0 {
		t.Errorf("deleted account still sees %d documents", len(listed.Documents))
	}
}
