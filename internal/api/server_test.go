package api

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booksapp/books-server/internal/auth"
	"github.com/booksapp/books-server/internal/search"
	"github.com/booksapp/books-server/internal/service"
	"github.com/booksapp/books-server/internal/store/sqlite"
)

const (
	loginLink  = `<a href="/login">Log In</a>`
	signupLink = `<a href="/signup">Sign Up</a>`
	logoutLink = `<a href="/logout">Log Out</a>`
)

type testServer struct {
	*Server
	store   *sqlite.Store
	auth    *service.AuthService
	catalog *service.CatalogService
}

// setupTestServer creates a server backed by a fresh in-memory database.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	st, err := sqlite.Open(sqlite.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.GenerateKey()
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key)
	require.NoError(t, err)

	index, err := search.NewIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sessions := service.NewSessionService(st, tokens, time.Hour, nil)
	authService := service.NewAuthService(st, sessions, nil)
	catalog := service.NewCatalogService(st, index, nil)

	srv, err := NewServer(&Services{
		Auth:    authService,
		Catalog: catalog,
		Store:   st,
		Index:   index,
	}, opts, nil)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: st, auth: authService, catalog: catalog}
}

// browser is an HTTP client with a cookie jar that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, handler http.Handler) *browser {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &browser{
		t:    t,
		base: ts.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	return b.postForwarded(path, form, "")
}

// postForwarded posts with an X-Forwarded-For header when forwardedFor is set.
func (b *browser) postForwarded(path string, form url.Values, forwardedFor string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	return b.do(req)
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func createUser(t *testing.T, ts *testServer, username, password string) {
	t.Helper()
	_, err := ts.auth.Signup(context.Background(), service.SignupRequest{Username: username, Password: password})
	require.NoError(t, err)
}

func TestSignup_CreatesUser(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := newBrowser(t, ts)

	resp, _ := b.post("/signup", credentials("me1", "password"))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	user, err := ts.store.GetUserByUsername(context.Background(), "me1")
	require.NoError(t, err)
	assert.Equal(t, "me1", user.Username)
	assert.NotEqual(t, "password", user.PasswordHash)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "password"))

	count, err := ts.store.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The login page shows the flash once.
	_, body := b.get("/login")
	assert.Contains(t, body, "Account created. Please log in.")
	_, body = b.get("/login")
	assert.NotContains(t, body, "Account created.")
}

func TestSignup_ExistingUser(t *testing.T) {
	ts := setupTestServer(t, Options{})
	createUser(t, ts, "me1", "password")
	b := newBrowser(t, ts)

	resp, body := b.post("/signup", credentials("me1", "password"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, service.MsgUsernameTaken)
	assert.Contains(t, body, `action="/signup"`)

	count, err := ts.store.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSignup_InvalidForm(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := newBrowser(t, ts)

	resp, body := b.post("/signup", credentials("", "password"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Username is required.")

	count, err := ts.store.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLogin_NonexistentUser(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := newBrowser(t, ts)

	resp, body := b.post("/login", credentials("me239u48238490", "password"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, service.MsgUnknownUsername)
	assert.Empty(t, resp.Cookies())

	_, home := b.get("/")
	assert.Contains(t, home, loginLink)
}

func TestLogin_IncorrectPassword(t *testing.T) {
	ts := setupTestServer(t, Options{})
	createUser(t, ts, "me1", "password")
	b := newBrowser(t, ts)

	resp, body := b.post("/login", credentials("me1", "password123123sdgyudgqwuyvfi"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Password doesn't match. Please try again.")
	assert.Equal(t, service.MsgWrongPassword, "Password doesn't match. Please try again.")
	assert.Empty(t, resp.Cookies())

	_, home := b.get("/")
	assert.Contains(t, home, loginLink)
}

func TestLogin_CorrectPassword(t *testing.T) {
	ts := setupTestServer(t, Options{})
	createUser(t, ts, "me1", "password")
	b := newBrowser(t, ts)

	_, home := b.get("/")
	assert.Contains(t, home, loginLink)
	assert.Contains(t, home, signupLink)

	resp, _ := b.post("/login", credentials("me1", "password"))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sessionCookie.SameSite)

	_, home = b.get("/")
	assert.NotContains(t, home, loginLink)
	assert.Contains(t, home, "Logged in as me1")
	assert.Contains(t, home, logoutLink)
}

func TestLogin_NextRedirect(t *testing.T) {
	ts := setupTestServer(t, Options{})
	createUser(t, ts, "me1", "password")
	b := newBrowser(t, ts)

	resp, _ := b.get("/create_author")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fcreate_author", resp.Header.Get("Location"))

	resp, _ = b.post("/login?next=%2Fcreate_author", credentials("me1", "password"))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/create_author", resp.Header.Get("Location"))

	// Off-site targets are ignored.
	b2 := newBrowser(t, ts)
	resp, _ = b2.post("/login?next=%2F%2Fevil.example", credentials("me1", "password"))
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t, Options{})
	createUser(t, ts, "me1", "password")
	b := newBrowser(t, ts)

	b.post("/login", credentials("me1", "password"))
	_, home := b.get("/")
	require.NotContains(t, home, loginLink)

	resp, _ := b.get("/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, home = b.get("/")
	assert.Contains(t, home, loginLink)
	assert.NotContains(t, home, logoutLink)

	// Anonymous logout is a no-op.
	resp, _ = b.post("/logout", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestLogout_RevokesStolenCookie(t *testing.T) {
	ts := setupTestServer(t, Options{})
	createUser(t, ts, "me1", "password")
	b := newBrowser(t, ts)

	resp, _ := b.post("/login", credentials("me1", "password"))
	var token string
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	b.get("/logout")

	// Replaying the old cookie no longer authenticates.
	req, err := http.NewRequest(http.MethodGet, b.base+"/", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	_, home := newBrowser(t, ts).do(req)
	assert.Contains(t, home, loginLink)
}

func TestCatalogPages(t *testing.T) {
	ts := setupTestServer(t, Options{})
	createUser(t, ts, "me1", "password")
	b := newBrowser(t, ts)
	b.post("/login", credentials("me1", "password"))

	resp, _ := b.post("/create_author", url.Values{"name": {"Harper Lee"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/create_book", resp.Header.Get("Location"))

	authors, err := ts.catalog.ListAuthors(context.Background())
	require.NoError(t, err)
	require.Len(t, authors, 1)

	_, form := b.get("/create_book")
	assert.Contains(t, form, "Author Harper Lee created.")
	assert.Contains(t, form, authors[0].ID)

	b.post("/create_author", url.Values{"name": {"Flannery O'Connor"}})
	_, form = b.get("/create_book")
	assert.Contains(t, form, "Author Flannery O'Connor created.")

	resp, body := b.post("/create_book", url.Values{
		"title":        {""},
		"author_id":    {authors[0].ID},
		"publish_date": {"1960-07-11"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Title is required.")
	assert.Contains(t, body, `value="1960-07-11"`)

	resp, _ = b.post("/create_book", url.Values{
		"title":        {"To Kill a Mockingbird"},
		"author_id":    {authors[0].ID},
		"publish_date": {"1960-07-11"},
		"audience":     {"ALL"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, "/books/book-"))

	resp, detail := b.get(location)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, detail, "To Kill a Mockingbird")
	assert.Contains(t, detail, "Harper Lee")
	assert.Contains(t, detail, "1960-07-11")

	_, home := b.get("/")
	assert.Contains(t, home, "To Kill a Mockingbird")

	_, results := b.get("/search?q=mockingbird")
	assert.Contains(t, results, location)
}

func TestCatalogPages_RequireLogin(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := newBrowser(t, ts)

	resp, _ := b.post("/create_book", url.Values{"title": {"x"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?next="))

	count, err := ts.store.CountBooks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBookDetail_NotFound(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := newBrowser(t, ts)

	resp, body := b.get("/books/book-missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Book not found.")

	resp, _ = b.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogin_RateLimited(t *testing.T) {
	ts := setupTestServer(t, Options{LoginRatePerMinute: 2})
	b := newBrowser(t, ts)

	for range 2 {
		resp, _ := b.post("/login", credentials("nobody", "password"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := b.post("/login", credentials("nobody", "password"))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many attempts.")

	// Viewing the form is not limited.
	resp, _ = b.get("/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_RateLimitIgnoresUntrustedForwardedFor(t *testing.T) {
	ts := setupTestServer(t, Options{LoginRatePerMinute: 2})
	b := newBrowser(t, ts)

	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		resp, _ := b.postForwarded("/login", credentials("nobody", "password"), ip)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// A new forwarded address does not buy a fresh bucket.
	resp, body := b.postForwarded("/login", credentials("nobody", "password"), "203.0.113.3")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many attempts.")
}

func TestLogin_RateLimitByTrustedProxyClient(t *testing.T) {
	ts := setupTestServer(t, Options{
		LoginRatePerMinute: 1,
		TrustedProxies: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("::1/128"),
		},
	})
	b := newBrowser(t, ts)

	resp, _ := b.postForwarded("/login", credentials("nobody", "password"), "203.0.113.1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.postForwarded("/login", credentials("nobody", "password"), "203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// A spoofed leftmost entry does not hide the address the proxy saw.
	resp, _ = b.postForwarded("/login", credentials("nobody", "password"), "198.51.100.9, 203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = b.postForwarded("/login", credentials("nobody", "password"), "203.0.113.2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
