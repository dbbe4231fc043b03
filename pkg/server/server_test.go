package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/medihome/storefront/internal/errors"
	"github.com/medihome/storefront/pkg/clock"
	"github.com/medihome/storefront/pkg/forms"
	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/live"
	"github.com/medihome/storefront/pkg/middleware"
	"github.com/medihome/storefront/pkg/page"
	"github.com/medihome/storefront/pkg/protocol"
	"github.com/medihome/storefront/pkg/session"
	"github.com/medihome/storefront/pkg/store"
	"github.com/medihome/storefront/pkg/toast"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 12, 25, 14, 30, 0, 0, time.UTC)

type fakeSubscribers struct {
	mu     sync.Mutex
	emails map[string]time.Time
	err    error
}

func newFakeSubscribers() *fakeSubscribers {
	return &fakeSubscribers{emails: make(map[string]time.Time)}
}

func (f *fakeSubscribers) Subscribe(ctx context.Context, email string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.emails[email]; ok {
		return store.ErrAlreadySubscribed
	}
	f.emails[email] = at
	return nil
}

func (f *fakeSubscribers) List(ctx context.Context) ([]store.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Subscriber, 0, len(f.emails))
	for e, at := range f.emails {
		out = append(out, store.Subscriber{Email: e, SubscribedAt: at})
	}
	return out, nil
}

func (f *fakeSubscribers) Close() error { return nil }

type failingArchive struct{}

func (failingArchive) Put(ctx context.Context, sub store.ContactSubmission) (string, error) {
	return "", stderrors.New("bucket unavailable")
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	opts = append([]Option{WithClock(clk)}, opts...)
	srv := New(DefaultConfig(), opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Live().Shutdown(ctx)
	})
	return srv, clk
}

func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{Name: session.DefaultCookieName, Value: id}
}

func get(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, h http.Handler, path string, form url.Values, xhr bool, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if xhr {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeForm(t *testing.T, rec *httptest.ResponseRecorder) FormResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp FormResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func issuedSession(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie issued", session.DefaultCookieName)
	return nil
}

func TestPageIssuesSessionCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	c := issuedSession(t, rec)
	assert.True(t, c.HttpOnly)
	assert.Len(t, c.Value, 32)

	body := rec.Body.String()
	assert.Contains(t, body, `id="toast"`)
	assert.Contains(t, body, `src="`+ClientPath+`"`)
	assert.Contains(t, body, `data-live="`+LivePath+`"`)
	assert.NotContains(t, body, "data-flash-index")

	// A returning browser keeps its cookie.
	rec = get(t, srv, "/", c)
	assert.Empty(t, rec.Result().Cookies())
}

func TestPageRendersFlashesOnce(t *testing.T) {
	srv, _ := newTestServer(t)
	id := session.NewID()
	ctx := context.Background()

	require.NoError(t, srv.Flash().Add(ctx, id, "success", "Order placed"))
	require.NoError(t, srv.Flash().Add(ctx, id, "danger", "Card declined"))

	body := get(t, srv, "/", sessionCookie(id)).Body.String()
	first := strings.Index(body, `data-flash-index="0">Order placed`)
	second := strings.Index(body, `data-flash-index="1">Card declined`)
	require.NotEqual(t, -1, first, body)
	require.NotEqual(t, -1, second, body)
	assert.Less(t, first, second)
	assert.Contains(t, body, "flash flash-success")
	assert.Contains(t, body, "flash flash-danger")

	body = get(t, srv, "/", sessionCookie(id)).Body.String()
	assert.NotContains(t, body, "data-flash-index")
}

func TestPageCapsFlashItems(t *testing.T) {
	srv, _ := newTestServer(t)
	id := session.NewID()
	for i := 0; i < protocol.MaxFlashItems+6; i++ {
		require.NoError(t, srv.Flash().Add(context.Background(), id, "info", "note"))
	}

	body := get(t, srv, "/", sessionCookie(id)).Body.String()
	assert.Equal(t, protocol.MaxFlashItems, strings.Count(body, "data-flash-index="))
}

func TestPageRendersInvoice(t *testing.T) {
	srv, _ := newTestServer(t)

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, "Invoice MH-2024-12346")
	assert.Contains(t, body, "৳822.15")
	assert.Contains(t, body, `data-event="invoice.download" data-value="MH-2024-12346"`)
}

func TestPageWithoutInvoice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InvoiceNumber = "MH-2024-99999"
	srv := New(cfg, WithClock(clock.NewManual(epoch)))

	body := get(t, srv, "/").Body.String()
	assert.NotContains(t, body, `id="invoice"`)
}

func TestPageCarriesClientToastSettings(t *testing.T) {
	srv, _ := newTestServer(t)

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, `data-toast-ms="3000"`)
	assert.Contains(t, body, `id="contactForm" method="post" action="/contact" data-error="`+forms.MsgContactFailed+`"`)
	assert.Contains(t, body, `id="newsletterForm" method="post" action="/subscribe" data-error="`+forms.MsgSubscribeFailed+`"`)

	liveCfg := live.DefaultConfig()
	liveCfg.ToastDuration = 5 * time.Second
	mgr := live.NewManager(page.NewDispatcher(invoice.NewMemoryRepository()), live.WithConfig(liveCfg))
	srv = New(DefaultConfig(), WithClock(clock.NewManual(epoch)), WithLive(mgr))
	assert.Contains(t, get(t, srv, "/").Body.String(), `data-toast-ms="5000"`)
}

func TestClientScriptHidesLocalToasts(t *testing.T) {
	js := string(clientJS)
	assert.Contains(t, js, `body.getAttribute("data-toast-ms")`)
	assert.Contains(t, js, `form.getAttribute("data-error")`)
	assert.Regexp(t, `(?s)function showToast\(text, kind\) \{.*setTimeout\(.*toastMs\)`, js)
	assert.Regexp(t, `(?s)\.catch\(function \(\) \{\s*showToast\(failed, "error"\);`, js)
	assert.NotContains(t, js, "There was an error sending your message")
}

func TestSubscribeJSON(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		storeFn func(*fakeSubscribers)
		success bool
		message string
	}{
		{"missing", "", nil, false, forms.MsgEmailMissing},
		{"invalid", "rahman@example", nil, false, forms.MsgEmailInvalid},
		{"subscribed", "rahman@example.com", nil, true, forms.MsgSubscribed},
		{"duplicate ignores case", "Rahman@Example.com", func(f *fakeSubscribers) {
			f.emails["rahman@example.com"] = epoch
		}, false, forms.MsgAlreadySubscribed},
		{"store failure", "rahman@example.com", func(f *fakeSubscribers) {
			f.err = stderrors.New("disk full")
		}, false, forms.MsgSubscribeFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			subs := newFakeSubscribers()
			if tt.storeFn != nil {
				tt.storeFn(subs)
			}
			srv, _ := newTestServer(t, WithSubscribers(subs))

			resp := decodeForm(t, post(t, srv, "/subscribe", url.Values{"email": {tt.email}}, true))
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestSubscribeRecordsTime(t *testing.T) {
	subs := newFakeSubscribers()
	srv, _ := newTestServer(t, WithSubscribers(subs))

	resp := decodeForm(t, post(t, srv, "/subscribe", url.Values{"email": {"Rahman@Example.com"}}, true))
	require.True(t, resp.Success)
	assert.Equal(t, epoch, subs.emails["rahman@example.com"])
}

func TestSubscribeWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := decodeForm(t, post(t, srv, "/subscribe", url.Values{"email": {"rahman@example.com"}}, true))
	assert.False(t, resp.Success)
	assert.Equal(t, forms.MsgSubscribeFailed, resp.Message)
}

func TestAcceptHeaderSelectsJSON(t *testing.T) {
	srv, _ := newTestServer(t, WithSubscribers(newFakeSubscribers()))

	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader("email=a%40b.co"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	resp := decodeForm(t, rec)
	assert.True(t, resp.Success)
}

func TestSubscribeRedirectsWithFlash(t *testing.T) {
	subs := newFakeSubscribers()
	subs.emails["taken@example.com"] = epoch
	srv, _ := newTestServer(t, WithSubscribers(subs))

	tests := []struct {
		name     string
		email    string
		category string
		text     string
	}{
		{"subscribed", "new@example.com", "success", forms.MsgSubscribed},
		{"duplicate", "taken@example.com", "info", FlashAlreadySubscribed},
		{"invalid", "nope", "danger", forms.MsgEmailInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(url.Values{"email": {tt.email}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Referer", "http://example.com/offers?page=2")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/offers?page=2", rec.Header().Get("Location"))

			body := get(t, srv, "/", issuedSession(t, rec)).Body.String()
			assert.Contains(t, body, `flash flash-`+tt.category+`" data-flash-index="0">`+tt.text)
		})
	}
}

func TestContactJSON(t *testing.T) {
	valid := url.Values{
		"name":       {"Md. Rahman"},
		"email":      {"rahman@example.com"},
		"phone":      {"+880 1712 345678"},
		"subject":    {"Delivery"},
		"message":    {"Where is my order?"},
		"newsletter": {"on"},
	}
	with := func(key, value string) url.Values {
		v := url.Values{}
		for k, vs := range valid {
			v[k] = vs
		}
		v.Set(key, value)
		return v
	}

	tests := []struct {
		name    string
		form    url.Values
		success bool
		message string
	}{
		{"sent", valid, true, forms.MsgContactSent},
		{"missing name", with("name", ""), false, forms.MsgRequiredFields},
		{"bad email", with("email", "rahman@"), false, forms.MsgInvalidEmail},
		{"bad phone", with("phone", "call me"), false, forms.MsgInvalidPhone},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			archive := store.NewMemoryArchive()
			srv, _ := newTestServer(t, WithArchive(archive))

			resp := decodeForm(t, post(t, srv, "/contact", tt.form, true))
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.message, resp.Message)

			if !tt.success {
				assert.Empty(t, archive.All())
				return
			}
			subs := archive.All()
			require.Len(t, subs, 1)
			assert.Equal(t, "Md. Rahman", subs[0].Name)
			assert.Equal(t, "Delivery", subs[0].Subject)
			assert.True(t, subs[0].Newsletter)
			assert.Equal(t, epoch, subs[0].CreatedAt)
		})
	}
}

func TestContactArchiveFailure(t *testing.T) {
	srv, _ := newTestServer(t, WithArchive(failingArchive{}))

	form := url.Values{
		"name": {"A"}, "email": {"a@b.co"}, "subject": {"Other"}, "message": {"hi"},
	}
	resp := decodeForm(t, post(t, srv, "/contact", form, true))
	assert.False(t, resp.Success)
	assert.Equal(t, forms.MsgContactFailed, resp.Message)
}

func TestContactRedirectsWithFlash(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{
		"name": {"A"}, "email": {"a@b.co"}, "subject": {"Other"}, "message": {"hi"},
	}
	rec := post(t, srv, "/contact", form, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	body := get(t, srv, "/", issuedSession(t, rec)).Body.String()
	assert.Contains(t, body, FlashContactSent)
}

func TestRedirectTarget(t *testing.T) {
	tests := []struct {
		referer string
		want    string
	}{
		{"", "/"},
		{"http://example.com/contact", "/contact"},
		{"http://EXAMPLE.com/a?b=1", "/a?b=1"},
		{"/relative", "/relative"},
		{"http://evil.test/phish", "/"},
		{"//evil.test/phish", "/"},
		{"javascript:alert(1)", "/"},
		{"http://example.com", "/"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.referer, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/subscribe", nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			assert.Equal(t, tt.want, redirectTarget(req))
		})
	}
}

func TestInvoiceDownload(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/invoice/MH-2024-12346/download")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice-MH-2024-12346.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "MH-2024-12346")
	assert.Contains(t, rec.Body.String(), "Md. Rahman")

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/invoice/MH-2024-99999/download").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/invoice/not-an-invoice/download").Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var h Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&h))
	assert.Equal(t, Health{Status: "ok", LiveSessions: 0}, h)
}

func TestClientScriptCaching(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, ClientPath)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=0, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, clientJS, rec.Body.Bytes())

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, ClientPath, nil)
	req.Header.Set("If-None-Match", `W/"other", `+etag)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	req = httptest.NewRequest(http.MethodHead, ClientPath, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestClientScriptDevMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DevMode = true
	srv := New(cfg, WithClock(clock.NewManual(epoch)))

	assert.Equal(t, "no-store", get(t, srv, ClientPath).Header().Get("Cache-Control"))
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(registry))
	srv, _ := newTestServer(t, WithMetrics(metrics, registry))

	get(t, srv, "/healthz")
	get(t, srv, "/invoice/MH-2024-12346/download")

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `storefront_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, body, `storefront_http_requests_total{method="GET",route="/invoice/{number}/download",status="200"} 1`)
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/metrics").Code)
}

func TestTracedSkipsProbes(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.False(t, srv.traced(httptest.NewRequest(http.MethodGet, "/healthz", nil)))
	assert.False(t, srv.traced(httptest.NewRequest(http.MethodGet, "/metrics", nil)))
	assert.True(t, srv.traced(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestScriptedFormToastsLiveTabs(t *testing.T) {
	srv, clk := newTestServer(t, WithSubscribers(newFakeSubscribers()))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	id := session.NewID()
	header := http.Header{}
	header.Set("Cookie", sessionCookie(id).String())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+LivePath, header)
	require.NoError(t, err)
	defer conn.Close()

	read := func() protocol.Frame {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var f protocol.Frame
		require.NoError(t, conn.ReadJSON(&f))
		return f
	}

	require.NoError(t, conn.WriteJSON(protocol.Frame{Type: protocol.FrameReady, Ready: &protocol.ReadyFrame{Flash: 0}}))
	require.Equal(t, protocol.FrameUI, read().Type)

	resp := decodeForm(t, post(t, srv, "/subscribe", url.Values{"email": {"rahman@example.com"}}, true, sessionCookie(id)))
	require.True(t, resp.Success)

	f := read()
	require.Equal(t, protocol.FrameToast, f.Type)
	assert.Equal(t, forms.MsgSubscribed, f.Toast.Text)
	assert.Equal(t, toast.ColorSuccess, f.Toast.Background)
	assert.True(t, f.Toast.Visible)

	clk.Advance(toast.DefaultDuration)
	f = read()
	require.Equal(t, protocol.FrameToast, f.Type)
	assert.False(t, f.Toast.Visible)
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReportsBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := DefaultConfig()
	cfg.Address = ln.Addr().String()
	err = New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "E401", errors.Code(err))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.SessionTTL = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CookieName = ""
	assert.Error(t, cfg.Validate())
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := (&Config{Address: ":9090"}).withDefaults()
	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, session.DefaultCookieName, cfg.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "MH-2024-12346", cfg.InvoiceNumber)

	var nilCfg *Config
	assert.Equal(t, DefaultConfig(), nilCfg.withDefaults())
}
