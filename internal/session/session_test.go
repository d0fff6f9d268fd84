package session

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// fakeSite simulates the login flow: anonymous requests land on the login
// page, authenticated ones (carrying the session cookie) reach the account
// area.
func fakeSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil && c.Value == "valid" {
			http.Redirect(w, r, "/user/chapter", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/user/login", http.StatusFound)
	})
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Please log in</body></html>`))
	})
	mux.HandleFunc("/user/chapter", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>My Account - logout</body></html>`))
	})
	mux.HandleFunc("/user/login/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.FormValue("login_email") == "judge@example.com" && r.FormValue("login_password") == "secret" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "valid", Path: "/"})
			http.Redirect(w, r, "/user/chapter", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/user/login", http.StatusFound)
	})

	return httptest.NewServer(mux)
}

func TestSession_LoginAndPersistCookies(t *testing.T) {
	server := fakeSite(t)
	defer server.Close()

	cookiesFile := filepath.Join(t.TempDir(), "cookies.json")

	s, err := New(Config{
		BaseURL:      server.URL,
		LoginPath:    "/user/login/login",
		LoggedInPath: "/user/chapter",
		UserAgent:    "test-agent",
		Username:     "judge@example.com",
		Password:     "secret",
		CookiesFile:  cookiesFile,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Login(t.Context()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A second session should come up already authenticated from the saved
	// cookies, without credentials.
	s2, err := New(Config{
		BaseURL:      server.URL,
		LoginPath:    "/user/login/login",
		LoggedInPath: "/user/chapter",
		UserAgent:    "test-agent",
		CookiesFile:  cookiesFile,
	})
	if err != nil {
		t.Fatalf("New() second session error = %v", err)
	}
	if err := s2.Login(t.Context()); err != nil {
		t.Errorf("Login() with saved cookies error = %v", err)
	}
}

func TestSession_LoginFailsWithBadCredentials(t *testing.T) {
	server := fakeSite(t)
	defer server.Close()

	s, err := New(Config{
		BaseURL:   server.URL,
		LoginPath: "/user/login/login",
		UserAgent: "test-agent",
		Username:  "judge@example.com",
		Password:  "wrong",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Login(t.Context()); err == nil {
		t.Error("Login() with bad credentials should fail")
	}
}

func TestSession_LoginWithoutCredentials(t *testing.T) {
	server := fakeSite(t)
	defer server.Close()

	s, err := New(Config{
		BaseURL:   server.URL,
		LoginPath: "/user/login/login",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Login(t.Context()); err == nil {
		t.Error("Login() without credentials should fail")
	}
}
