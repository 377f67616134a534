package web

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pulmoscan/logger"
	"pulmoscan/storage"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "pulmoscan-test-log")
	if err != nil {
		os.Exit(1)
	}
	os.Setenv("PULMO_LOG_FOLDER", dir)
	logger.InitLogger(logging.ERROR)
	gin.SetMode(gin.TestMode)

	code := m.Run()

	logger.CloseLogger()
	os.RemoveAll(dir)
	os.Exit(code)
}

// testClient drives the engine through httptest and carries session cookies
// across requests like a browser would.
type testClient struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
}

func newTestServer(t *testing.T) (*Server, *testClient) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PULMO_DATA_FOLDER", filepath.Join(dir, "data"))
	t.Setenv("PULMO_UPLOAD_FOLDER", filepath.Join(dir, "uploads"))
	t.Setenv("PULMO_DISPLAY_FOLDER", filepath.Join(dir, "static"))

	s := NewServer()
	if err := s.initServices(); err != nil {
		t.Fatal(err)
	}
	engine, err := s.initRouter()
	if err != nil {
		t.Fatal(err)
	}
	return s, &testClient{t: t, engine: engine, cookies: map[string]*http.Cookie{}}
}

func (c *testClient) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	for _, cookie := range w.Result().Cookies() {
		c.cookies[cookie.Name] = cookie
	}
	return w
}

func (c *testClient) get(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, nil, "")
}

func (c *testClient) postForm(target string, form map[string]string) *httptest.ResponseRecorder {
	values := make([]string, 0, len(form))
	for k, v := range form {
		values = append(values, k+"="+v)
	}
	body := strings.Join(values, "&")
	return c.do(http.MethodPost, target, strings.NewReader(body), "application/x-www-form-urlencoded")
}

func (c *testClient) upload(target, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		c.t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		c.t.Fatal(err)
	}
	mw.Close()
	return c.do(http.MethodPost, target, &buf, mw.FormDataContentType())
}

func (c *testClient) login(username, password string) {
	c.t.Helper()
	w := c.postForm("/login", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		c.t.Fatalf("login %s failed: code %d, location %q", username, w.Code, w.Header().Get("Location"))
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 600, 500))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDashboardRequiresLogin(t *testing.T) {
	_, client := newTestServer(t)

	w := client.get("/")
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("code = %d, expected 307", w.Code)
	}
	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?next=") {
		t.Errorf("location = %q, expected redirect to login with next", location)
	}
}

func TestHomeIsPublic(t *testing.T) {
	_, client := newTestServer(t)

	w := client.get("/home")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, expected 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Medical Imaging Analysis") {
		t.Error("landing page content missing")
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, client := newTestServer(t)

	w := client.get("/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, expected 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"success":true`) || !strings.Contains(body, "pulmoscan") {
		t.Errorf("unexpected status body: %s", body)
	}
}

func TestSignupLoginFlow(t *testing.T) {
	_, client := newTestServer(t)

	form := map[string]string{
		"name":             "Alice",
		"username":         "alice",
		"email":            "alice@x.com",
		"password":         "secret1",
		"confirm_password": "secret1",
		"role":             "patient",
	}
	w := client.postForm("/signup", form)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("signup failed: code %d, location %q", w.Code, w.Header().Get("Location"))
	}

	// the success notice is flashed on the login page
	w = client.get("/login")
	if !strings.Contains(w.Body.String(), "Account created successfully") {
		t.Error("success flash missing on login page")
	}

	// duplicate username bounces back to the signup form
	w = client.postForm("/signup", form)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/signup" {
		t.Fatalf("duplicate signup: code %d, location %q", w.Code, w.Header().Get("Location"))
	}
	w = client.get("/signup")
	if !strings.Contains(w.Body.String(), "username already exists") {
		t.Error("validation flash missing on signup page")
	}

	// wrong password is rejected with a generic message
	w = client.postForm("/login", map[string]string{"username": "alice", "password": "wrong"})
	if w.Header().Get("Location") != "/login" {
		t.Fatalf("bad login should bounce to /login, got %q", w.Header().Get("Location"))
	}
	w = client.get("/login")
	if !strings.Contains(w.Body.String(), "Invalid username or password") {
		t.Error("generic auth flash missing")
	}

	// correct credentials establish the session
	client.login("alice", "secret1")
	w = client.get("/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Chest X-Ray Analysis") {
		t.Fatalf("dashboard not reachable after login: code %d", w.Code)
	}
}

func TestLoginRedirectsToRequestedPage(t *testing.T) {
	_, client := newTestServer(t)

	w := client.postForm("/login?next=%2Fhistory", map[string]string{"username": "admin", "password": "admin123"})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/history" {
		t.Fatalf("code %d, location %q, expected redirect to /history", w.Code, w.Header().Get("Location"))
	}
}

func TestLogoutClearsSession(t *testing.T) {
	_, client := newTestServer(t)
	client.login("admin", "admin123")

	w := client.get("/logout")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("logout: code %d, location %q", w.Code, w.Header().Get("Location"))
	}
	w = client.get("/login")
	if !strings.Contains(w.Body.String(), "logged out successfully") {
		t.Error("logout flash missing")
	}

	w = client.get("/")
	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("dashboard reachable after logout: code %d", w.Code)
	}

	// logging out again is not an error
	w = client.get("/logout")
	if w.Code != http.StatusFound {
		t.Errorf("second logout: code %d", w.Code)
	}
}

func TestUploadFlow(t *testing.T) {
	s, client := newTestServer(t)
	client.login("admin", "admin123")

	// unsupported extension is rejected before storage
	w := client.upload("/", "photo.gif", []byte("GIF89a"))
	if w.Code != http.StatusFound {
		t.Fatalf("gif upload: code %d", w.Code)
	}
	w = client.get("/")
	if !strings.Contains(w.Body.String(), "Invalid file type") {
		t.Error("file type flash missing")
	}
	entries, err := s.historyStore.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("history has %d entries after rejected upload", len(entries))
	}

	// a valid PNG produces a rendered result and one history entry
	w = client.upload("/", "scan.png", testPNG(t))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Analysis Result") {
		t.Fatalf("png upload: code %d", w.Code)
	}
	entries, err = s.historyStore.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].UserID != "admin" {
		t.Errorf("entry author = %q", entries[0].UserID)
	}

	// the display copy is served to the session
	w = client.get("/display/display_" + entries[0].Result.Filename)
	if w.Code != http.StatusOK {
		t.Errorf("display image: code %d", w.Code)
	}
}

func TestHistoryRoleFiltering(t *testing.T) {
	s, client := newTestServer(t)

	// a patient records one entry, a foreign entry exists as well
	err := s.historyStore.Record(storage.HistoryEntry{
		ID: "other", User: "Someone Else", UserID: "someone",
		Result: storage.AnalysisResult{Normal: 60, Pneumonia: 40, Severity: storage.SeverityLow},
	})
	if err != nil {
		t.Fatal(err)
	}

	client.postForm("/signup", map[string]string{
		"name": "Bob", "username": "bob", "email": "bob@x.com",
		"password": "secret1", "confirm_password": "secret1", "role": "patient",
	})
	client.login("bob", "secret1")
	client.upload("/", "scan.png", testPNG(t))

	w := client.get("/history")
	body := w.Body.String()
	if !strings.Contains(body, "Bob") {
		t.Error("patient's own entry missing")
	}
	if strings.Contains(body, "Someone Else") {
		t.Error("patient sees a foreign entry")
	}

	// the seeded doctor sees everything
	doctor := &testClient{t: t, engine: client.engine, cookies: map[string]*http.Cookie{}}
	doctor.login("admin", "admin123")
	w = doctor.get("/history")
	body = w.Body.String()
	if !strings.Contains(body, "Bob") || !strings.Contains(body, "Someone Else") {
		t.Error("doctor does not see all entries")
	}
}

func TestUploadSizeCeiling(t *testing.T) {
	_, client := newTestServer(t)
	client.login("admin", "admin123")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	req.ContentLength = 17 << 20
	for _, cookie := range client.cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	client.engine.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized upload: code %d, expected 413", w.Code)
	}
}
