package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ivr-flow/internal/config"
	"ivr-flow/internal/ivr"
	"ivr-flow/internal/menu"
	"ivr-flow/internal/middleware"
	"ivr-flow/internal/session"
	"ivr-flow/internal/testutil"
	"ivr-flow/internal/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func setup(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Server.Mode = gin.TestMode
	cfg.Admin.JWTSecret = "s3cret"
	cfg.IVR.WebhookBaseURL = "https://ivr.example.com"
	if mutate != nil {
		mutate(&cfg)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := testutil.SetupTestDB(t)
	store := session.NewRedisStore(client, cfg.Redis.KeyPrefix, session.Options{
		RootMenuID: cfg.IVR.RootMenuID,
		TTL:        cfg.IVR.SessionTTLDuration(),
	})
	engine := ivr.NewEngine(store, menu.NewGormRepository(db), ivr.NewGormFinalizer(db), cfg.IVR)

	return SetupRouter(&cfg, Deps{DB: db, Sessions: store, Engine: engine}), mr
}

func postForm(r *gin.Engine, path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, mr := setup(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthy status = %d body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	mr.Close()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "unhealthy") {
		t.Errorf("redis down status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestRouter_AnswerWithoutMenusApologizes(t *testing.T) {
	r, mr := setup(t, nil)

	form := url.Values{"CallUUID": {"c1"}, "From": {"+15551234567"}, "To": {"+15557654321"}}
	w := postForm(r, "/api/answer", form, nil)
	if !strings.Contains(w.Body.String(), ivr.MsgUnavailable) {
		t.Errorf("body = %s", w.Body.String())
	}
	if mr.Exists("ivr:session:c1") {
		t.Error("session created without a root menu")
	}
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	r, _ := setup(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/call-logs", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	token, err := util.GenerateToken("s3cret", "ivr-flow", "ops", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/call-logs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestRouter_SignatureEnforced(t *testing.T) {
	r, mr := setup(t, func(c *config.Config) {
		c.Plivo.VerifySignature = true
		c.Plivo.AuthToken = "plivo-token"
	})

	form := url.Values{"CallUUID": {"c1"}, "From": {"+15551234567"}, "To": {"+15557654321"}}
	if w := postForm(r, "/api/answer", form, nil); w.Code != http.StatusForbidden {
		t.Errorf("unsigned status = %d, want 403", w.Code)
	}

	sig := middleware.SignV2("plivo-token", "https://ivr.example.com/api/answer", "abc")
	header := http.Header{
		middleware.SignatureHeader: {sig},
		middleware.NonceHeader:     {"abc"},
	}
	if w := postForm(r, "/api/answer", form, header); w.Code != http.StatusOK {
		t.Errorf("signed status = %d, want 200", w.Code)
	}
	if mr.Exists("ivr:session:c1") {
		t.Error("session created without a root menu")
	}
}
