// Package httpapi tests exercise the REST API end to end against a real
// SQLite database and content store.
package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"mailportal/internal/db"
	"mailportal/internal/notify"
	"mailportal/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestServer(t *testing.T) (*Server, *echo.Echo) {
	t.Helper()
	d, err := db.Open(t.Context(), t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	lg := testLogger()
	s := &Server{
		DB:             d,
		Store:          st,
		Notify:         notify.New(d, nil, lg, ""),
		Logger:         lg,
		JWTSecret:      []byte("test-secret"),
		TokenTTL:       time.Hour,
		CORSOrigins:    []string{"http://localhost:5173"},
		MaxUploadBytes: 10 << 20,
	}
	return s, s.Router()
}

// doJSON runs one request through the router and decodes the JSON response.
func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("unmarshal %s %s: %v (body=%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func registerUser(t *testing.T, e *echo.Echo, email, role string) (string, db.User) {
	t.Helper()
	var resp struct {
		User  db.User `json:"user"`
		Token string  `json:"token"`
	}
	code := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "password1", "name": email, "role": role,
	}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("register %s: status=%d", email, code)
	}
	return resp.Token, resp.User
}

func uploadFile(t *testing.T, e *echo.Echo, token, jobID, fileType, filename, mime, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("jobId", jobID)
	_ = w.WriteField("fileType", fileType)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	hdr["Content-Type"] = []string{mime}
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader(content)); err != nil {
		t.Fatalf("copy: %v", err)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginMe(t *testing.T) {
	_, e := newTestServer(t)
	tok, u := registerUser(t, e, "client@example.com", "")
	if u.Role != db.RoleClient {
		t.Fatalf("default role should be CLIENT, got %s", u.Role)
	}

	// Duplicate email conflicts.
	code := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "client@example.com", "password": "password1", "name": "again",
	}, nil)
	if code != http.StatusConflict {
		t.Fatalf("duplicate register: status=%d", code)
	}

	// Wrong password is a 401, not a 404.
	code = doJSON(t, e, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "client@example.com", "password": "nope",
	}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("bad login: status=%d", code)
	}

	var me struct {
		User db.User `json:"user"`
	}
	code = doJSON(t, e, http.MethodGet, "/api/auth/me", tok, nil, &me)
	if code != http.StatusOK || me.User.Email != "client@example.com" {
		t.Fatalf("me: status=%d user=%+v", code, me.User)
	}

	// No token at all.
	code = doJSON(t, e, http.MethodGet, "/api/auth/me", "", nil, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated me: status=%d", code)
	}
}

func TestJobOwnershipAndNotFoundOrdering(t *testing.T) {
	_, e := newTestServer(t)
	tokA, _ := registerUser(t, e, "a@example.com", "")
	tokB, _ := registerUser(t, e, "b@example.com", "")
	tokStaff, _ := registerUser(t, e, "staff@example.com", db.RoleStaff)

	var job db.Job
	code := doJSON(t, e, http.MethodPost, "/api/jobs", tokA, map[string]any{
		"month": "December", "year": 2025, "campaignName": "Holiday Push",
	}, &job)
	if code != http.StatusCreated || job.Status != "DRAFT" {
		t.Fatalf("create job: status=%d job=%+v", code, job)
	}

	// Foreign client: resource exists, so 403.
	if code := doJSON(t, e, http.MethodGet, "/api/jobs/"+job.ID, tokB, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign get: status=%d", code)
	}
	// Missing resource wins over authorization: 404 even for a stranger.
	if code := doJSON(t, e, http.MethodGet, "/api/jobs/no-such-job", tokB, nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing get: status=%d", code)
	}
	// Staff can read anything.
	if code := doJSON(t, e, http.MethodGet, "/api/jobs/"+job.ID, tokStaff, nil, nil); code != http.StatusOK {
		t.Fatalf("staff get: status=%d", code)
	}

	// Owner list contains the job; a stranger's list does not.
	var listB []db.Job
	if code := doJSON(t, e, http.MethodGet, "/api/jobs", tokB, nil, &listB); code != http.StatusOK || len(listB) != 0 {
		t.Fatalf("b's list: status=%d len=%d", code, len(listB))
	}
}

func TestUploadThresholdTransition(t *testing.T) {
	s, e := newTestServer(t)
	tok, _ := registerUser(t, e, "client@example.com", "")

	var job db.Job
	doJSON(t, e, http.MethodPost, "/api/jobs", tok, map[string]any{
		"month": "March", "year": 2025, "campaignName": "Spring",
	}, &job)

	slots := []string{"BUCKSLIP_1", "BUCKSLIP_2", "BUCKSLIP_3", "LETTER_REPLY", "OUTER_ENVELOPE"}
	for i, slot := range slots {
		rec := uploadFile(t, e, tok, job.ID, slot, fmt.Sprintf("f%d.pdf", i), "application/pdf", "content")
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %d: status=%d body=%s", i, rec.Code, rec.Body.String())
		}
	}
	got, _, err := s.DB.GetJob(t.Context(), job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != "DRAFT" {
		t.Fatalf("5 files must leave the job in DRAFT, got %s", got.Status)
	}

	rec := uploadFile(t, e, tok, job.ID, "MAIL_LIST", "list.csv", "text/csv", "a,b\n")
	if rec.Code != http.StatusCreated {
		t.Fatalf("6th upload: status=%d body=%s", rec.Code, rec.Body.String())
	}
	got, _, err = s.DB.GetJob(t.Context(), job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != "ASSETS_UPLOADED" {
		t.Fatalf("6th file must advance the job, got %s", got.Status)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	s, e := newTestServer(t)
	tok, _ := registerUser(t, e, "client@example.com", "")

	var job db.Job
	doJSON(t, e, http.MethodPost, "/api/jobs", tok, map[string]any{
		"month": "March", "year": 2025, "campaignName": "Spring",
	}, &job)

	rec := uploadFile(t, e, tok, job.ID, "BUCKSLIP_1", "payload.exe", "application/octet-stream", "MZ")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("exe upload: status=%d", rec.Code)
	}

	// No ledger row and no bytes.
	files, err := s.DB.ListFilesForJob(t.Context(), job.ID)
	if err != nil {
		t.Fatalf("ListFilesForJob: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("rejected upload left a ledger row")
	}
	entries, err := os.ReadDir(s.Store.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected upload left bytes on disk")
	}
}

func TestStatusPatchValidation(t *testing.T) {
	_, e := newTestServer(t)
	tok, _ := registerUser(t, e, "client@example.com", "")
	tokStaff, _ := registerUser(t, e, "staff@example.com", db.RoleStaff)

	var job db.Job
	doJSON(t, e, http.MethodPost, "/api/jobs", tok, map[string]any{
		"month": "March", "year": 2025, "campaignName": "Spring",
	}, &job)

	// Clients cannot change status, even on their own campaign.
	code := doJSON(t, e, http.MethodPatch, "/api/jobs/"+job.ID, tok, map[string]string{
		"status": "PROOFING",
	}, nil)
	if code != http.StatusForbidden {
		t.Fatalf("client status patch: status=%d", code)
	}

	// Staff cannot skip workflow states.
	code = doJSON(t, e, http.MethodPatch, "/api/jobs/"+job.ID, tokStaff, map[string]string{
		"status": "PRINTING",
	}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("skip-ahead patch: status=%d", code)
	}
}

func TestPatchRecomputesTotals(t *testing.T) {
	_, e := newTestServer(t)
	tokStaff, _ := registerUser(t, e, "staff@example.com", db.RoleStaff)
	tok, _ := registerUser(t, e, "client@example.com", "")

	var job db.Job
	doJSON(t, e, http.MethodPost, "/api/jobs", tok, map[string]any{
		"month": "November", "year": 2024, "campaignName": "Fall Plans",
	}, &job)

	var updated db.Job
	code := doJSON(t, e, http.MethodPatch, "/api/jobs/"+job.ID, tokStaff, map[string]any{
		"mailCount": 4500, "ratePerPiece": 0.85,
	}, &updated)
	if code != http.StatusOK {
		t.Fatalf("patch: status=%d", code)
	}
	if updated.TotalCost == nil || *updated.TotalCost != 3825.00 {
		t.Fatalf("totalCost=%v", updated.TotalCost)
	}
	if updated.TaxAmount == nil || *updated.TaxAmount != 344.25 {
		t.Fatalf("taxAmount=%v", updated.TaxAmount)
	}
}

func TestApprovalFlow(t *testing.T) {
	s, e := newTestServer(t)
	tok, _ := registerUser(t, e, "client@example.com", "")
	tokStaff, _ := registerUser(t, e, "staff@example.com", db.RoleStaff)

	var job db.Job
	doJSON(t, e, http.MethodPost, "/api/jobs", tok, map[string]any{
		"month": "May", "year": 2025, "campaignName": "Proof run",
	}, &job)

	// Approving a DRAFT job is invalid.
	code := doJSON(t, e, http.MethodPost, "/api/jobs/"+job.ID+"/proof-events", tokStaff, map[string]string{
		"action": "APPROVED",
	}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("approve draft: status=%d", code)
	}

	// Walk to PROOFING.
	for i := 0; i < 6; i++ {
		rec := uploadFile(t, e, tok, job.ID, "BUCKSLIP_1", fmt.Sprintf("f%d.pdf", i), "application/pdf", "x")
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %d: status=%d", i, rec.Code)
		}
	}
	if code := doJSON(t, e, http.MethodPatch, "/api/jobs/"+job.ID, tokStaff, map[string]string{"status": "PROOFING"}, nil); code != http.StatusOK {
		t.Fatalf("to proofing: status=%d", code)
	}

	// Request changes sends the job back.
	if code := doJSON(t, e, http.MethodPost, "/api/jobs/"+job.ID+"/proof-events", tok, map[string]string{
		"action": "REQUEST_CHANGES", "notes": "wrong envelope art",
	}, nil); code != http.StatusCreated {
		t.Fatalf("request changes: status=%d", code)
	}
	got, _, err := s.DB.GetJob(t.Context(), job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != "ASSETS_UPLOADED" {
		t.Fatalf("send-back status=%s", got.Status)
	}

	// Back to PROOFING and approve.
	doJSON(t, e, http.MethodPatch, "/api/jobs/"+job.ID, tokStaff, map[string]string{"status": "PROOFING"}, nil)
	var ev db.ProofEvent
	if code := doJSON(t, e, http.MethodPost, "/api/jobs/"+job.ID+"/proof-events", tokStaff, map[string]string{
		"action": "APPROVED", "notes": "ship it",
	}, &ev); code != http.StatusCreated {
		t.Fatalf("approve: status=%d", code)
	}
	got, _, err = s.DB.GetJob(t.Context(), job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != "APPROVED" || got.ApprovedAt == nil {
		t.Fatalf("approval not applied: status=%s approvedAt=%v", got.Status, got.ApprovedAt)
	}

	var events []db.ProofEvent
	if code := doJSON(t, e, http.MethodGet, "/api/jobs/"+job.ID+"/proof-events", tok, nil, &events); code != http.StatusOK {
		t.Fatalf("list events: status=%d", code)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}

func TestFileDownloadAndDelete(t *testing.T) {
	s, e := newTestServer(t)
	tok, _ := registerUser(t, e, "client@example.com", "")

	var job db.Job
	doJSON(t, e, http.MethodPost, "/api/jobs", tok, map[string]any{
		"month": "May", "year": 2025, "campaignName": "Download test",
	}, &job)

	rec := uploadFile(t, e, tok, job.ID, "MAIL_LIST", "list.csv", "text/csv", "a,b\n1,2\n")
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: status=%d", rec.Code)
	}
	var f db.File
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatalf("unmarshal upload: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/files/"+f.ID, nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "a,b\n1,2\n" {
		t.Fatalf("download: status=%d body=%q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "list.csv") {
		t.Fatalf("content-disposition=%q", cd)
	}

	// Remove the backing bytes out of band; delete still removes the row.
	files, err := s.DB.ListFilesForJob(t.Context(), job.ID)
	if err != nil || len(files) != 1 {
		t.Fatalf("ListFilesForJob: %v len=%d", err, len(files))
	}
	if err := os.Remove(files[0].FilePath); err != nil {
		t.Fatalf("remove bytes: %v", err)
	}

	// Download of a row with missing bytes is a 404.
	w = httptest.NewRecorder()
	e.ServeHTTP(w, req.Clone(req.Context()))
	if w.Code != http.StatusNotFound {
		t.Fatalf("download missing bytes: status=%d", w.Code)
	}

	if code := doJSON(t, e, http.MethodDelete, "/api/files/"+f.ID, tok, nil, nil); code != http.StatusOK {
		t.Fatalf("delete: status=%d", code)
	}
	if _, _, found, err := s.DB.GetFile(t.Context(), f.ID); err != nil || found {
		t.Fatalf("ledger row should be gone (found=%v err=%v)", found, err)
	}
}

func TestSftpCredentialEndpoints(t *testing.T) {
	_, e := newTestServer(t)
	tokA, _ := registerUser(t, e, "a@example.com", "")
	tokB, _ := registerUser(t, e, "b@example.com", "")

	var cred db.SftpCredential
	code := doJSON(t, e, http.MethodPost, "/api/sftp/credentials", tokA, map[string]string{
		"username": "a_uploads", "password": "longenough",
	}, &cred)
	if code != http.StatusCreated || !cred.Active {
		t.Fatalf("create credential: status=%d cred=%+v", code, cred)
	}

	// Duplicate username conflicts, even across owners.
	code = doJSON(t, e, http.MethodPost, "/api/sftp/credentials", tokB, map[string]string{
		"username": "a_uploads", "password": "longenough",
	}, nil)
	if code != http.StatusConflict {
		t.Fatalf("duplicate username: status=%d", code)
	}

	// Foreign client cannot touch it; missing id is 404 first.
	if code := doJSON(t, e, http.MethodDelete, "/api/sftp/credentials/"+cred.ID, tokB, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign delete: status=%d", code)
	}
	if code := doJSON(t, e, http.MethodDelete, "/api/sftp/credentials/missing", tokB, nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing delete: status=%d", code)
	}

	var updated db.SftpCredential
	code = doJSON(t, e, http.MethodPatch, "/api/sftp/credentials/"+cred.ID, tokA, map[string]any{
		"active": false,
	}, &updated)
	if code != http.StatusOK || updated.Active {
		t.Fatalf("deactivate: status=%d cred=%+v", code, updated)
	}
}
