package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bizkit/internal/assets"
	"bizkit/internal/llm"
	"bizkit/internal/mailer"
	"bizkit/internal/model"
	"bizkit/internal/repository"
	"bizkit/internal/service"
	"bizkit/pkg/circuitbreaker"
	"bizkit/pkg/config"
	"bizkit/pkg/trace"
)

type memUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (m *memUsers) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = len(m.users) + 1
	u.CreatedAt = time.Now()
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (r *recordingTransport) Send(_ context.Context, msg mailer.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return "<1@test>", nil
}

func (r *recordingTransport) Verify(context.Context) error { return nil }

type testEnv struct {
	engine    *gin.Engine
	website   *llm.Stub
	gemini    *llm.Stub
	transport *recordingTransport
}

type setup struct {
	server    config.ServerConfig
	transport mailer.Transport
	history   repository.ChatStore
}

// limitRecorder remembers the page size each List call received.
type limitRecorder struct {
	mu     sync.Mutex
	limits []int
}

func (l *limitRecorder) Append(context.Context, *model.ChatMessage) error { return nil }

func (l *limitRecorder) List(_ context.Context, limit int) ([]model.ChatMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits = append(l.limits, limit)
	return []model.ChatMessage{}, nil
}

func newTestEnv(t *testing.T, opts ...func(*setup)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rt := &recordingTransport{}
	s := setup{
		server:    config.ServerConfig{CORSOrigins: []string{"http://localhost:5173"}, BodyLimit: 1 << 20},
		transport: rt,
	}
	for _, o := range opts {
		o(&s)
	}

	logger := zaptest.NewLogger(t)
	website := &llm.Stub{Response: `{"html": "<h1>Shop</h1>", "css": "h1{}"}`}
	gemini := &llm.Stub{Response: `{"subject": "Hello there", "html": "<p>Welcome to our shop, we are glad you are here with us.</p>"}`}

	r := NewRouter(Deps{
		Server: s.server,
		Logger: logger,
		Health: &Health{
			Database:          func(context.Context) error { return errors.New("down") },
			WebsiteGeneration: true,
			EnvCheck:          map[string]string{"GEMINI_API_KEY1": "Missing"},
		},
		Auth:     service.NewAuthService(&memUsers{}, "test-secret", time.Hour),
		Website:  service.NewWebsiteService(website, "", logger),
		Email:    service.NewEmailService(gemini, "", 0, logger),
		Chat:     service.NewChatService(gemini, s.history, "", logger),
		Delivery: service.NewDeliveryService(s.transport, nil, nil, logger),
		Assets:   assets.NewService(assets.NewMemoryRepository(), assets.NewMemoryBlobStore(), 1024, logger),
	})
	return &testEnv{engine: r.Engine, website: website, gemini: gemini, transport: rt}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) signup(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Ada", "email": "ada@example.com", "password": "pw", "confirmPassword": "pw",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Ada", "email": "ada@example.com", "password": "pw", "confirmPassword": "pw",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/signin", map[string]string{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid credentials.", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/auth/signin", map[string]string{"email": "ada@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "Ada", user["fullName"])
	assert.NotContains(t, w.Body.String(), "PasswordHash")

	w = env.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", decode(t, w)["email"])
}

func TestGenerateWebsite(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/generate", map[string]string{"prompt": "a flower shop"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"html": "<h1>Shop</h1>", "css": "h1{}"}, decode(t, w))

	w = env.do(t, http.MethodPost, "/generate", map[string]any{"brief": map[string]any{"businessName": "Petals"}})
	require.Equal(t, http.StatusOK, w.Code)
	calls := env.website.Calls()
	assert.Contains(t, calls[len(calls)-1].Prompt, `business named "Petals"`)
}

func TestGenerateWebsite_ParseErrorReturnsRawOutput(t *testing.T) {
	env := newTestEnv(t)
	env.website.Response = "not json at all"

	w := env.do(t, http.MethodPost, "/generate", map[string]string{"prompt": "x"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	assert.Equal(t, "upstream_parse_error", body["kind"])
	assert.Equal(t, "not json at all", body["rawOutput"])
}

func TestGenerateEmail_UpstreamQuota(t *testing.T) {
	env := newTestEnv(t)
	env.gemini.Err = &llm.Error{Provider: llm.ProviderGemini, Kind: llm.KindQuotaExceeded, Err: errors.New("429")}
	env.gemini.Response = ""

	w := env.do(t, http.MethodPost, "/api/generate-email", map[string]string{"prompt": "sale"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "upstream_quota_error", decode(t, w)["kind"])
}

func TestGenerateEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/generate-email", map[string]string{"prompt": "", "tone": "casual"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Prompt is required", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/generate-email", map[string]string{"prompt": "grand opening"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Hello there", body["subject"])
	assert.Equal(t, "Welcome to our shop, we are glad you are here with us.", body["plainText"])
}

func TestBulkEmails(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/generate-bulk-emails", map[string]any{"topics": []string{"a", "b"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["succeeded"])
	assert.Equal(t, true, body["completed"])
}

func TestTemplates(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "available_types")
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)
	env.gemini.Response = "**Tip:**\n- Post   daily"

	w := env.do(t, http.MethodPost, "/chat", map[string]string{"message": "marketing ideas?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tip:\n• Post daily", decode(t, w)["reply"])

	env.gemini.Err = &llm.Error{Provider: llm.ProviderGemini, Kind: llm.KindNetworkError, Err: errors.New("connection refused")}
	w = env.do(t, http.MethodPost, "/chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, service.ChatFallbackReply, decode(t, w)["reply"])

	w = env.do(t, http.MethodPost, "/chat", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/send-email", map[string]string{
		"to": "a@example.com; b@example.com", "subject": "Hi", "html": "<p>Hello</p>",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "<1@test>", decode(t, w)["messageId"])
	require.Len(t, env.transport.sent, 1)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, env.transport.sent[0].To)

	w = env.do(t, http.MethodPost, "/send-email", map[string]any{
		"to": []string{"c@example.com"}, "subject": "Hi", "text": "plain",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/send-email", map[string]any{"to": "c@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", decode(t, w)["error"])
}

func TestSendEmail_NotConfigured(t *testing.T) {
	env := newTestEnv(t, func(s *setup) { s.transport = nil })
	w := env.do(t, http.MethodPost, "/send-email", map[string]string{"to": "a@example.com", "subject": "Hi", "text": "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "mail_transport_error", body["kind"])
	assert.Equal(t, "Email service not configured", body["error"])

	w = env.do(t, http.MethodPost, "/test-email", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestValidateAndParseRecipients(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/validate-emails", map[string]any{"emails": []string{"a@example.com", "bad", "a@example.com"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{"a@example.com"}, body["valid"])
	assert.Equal(t, []any{"bad"}, body["invalid"])
	assert.Equal(t, []any{"a@example.com"}, body["duplicates"])

	w = env.do(t, http.MethodPost, "/api/recipients/parse", map[string]any{
		"input":    "a@x.com, bad, b@y.org; a@x.com",
		"existing": []map[string]string{{"email": "b@y.org", "name": "b"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	added := decode(t, w)["added"].([]any)
	require.Len(t, added, 1)
	assert.Equal(t, "a@x.com", added[0].(map[string]any)["email"])
}

func TestNotesAndTables(t *testing.T) {
	env := newTestEnv(t)
	auth := []string{"Authorization", "Bearer " + env.signup(t)}

	w := env.do(t, http.MethodPost, "/api/notes", map[string]string{"title": "Idea", "content": "Loyalty cards"}, auth...)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPut, "/api/notes/"+id, map[string]string{"category": "marketing"}, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "marketing", decode(t, w)["category"])

	w = env.do(t, http.MethodGet, "/api/notes", nil, auth...)
	assert.Len(t, decode(t, w)["notes"], 1)

	w = env.do(t, http.MethodDelete, "/api/notes/"+id, nil, auth...)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/api/notes/"+id, nil, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/tables", map[string]string{"name": "Menu"}, auth...)
	require.Equal(t, http.StatusCreated, w.Code)
	tid := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/tables/"+tid+"/rows", map[string]any{"cells": []string{"Tea"}}, auth...)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/tables/"+tid+"/cells", map[string]any{"row": 1, "col": 1, "value": "2.00"}, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	assert.Equal(t, []any{"Tea", "2.00", ""}, rows[1])

	w = env.do(t, http.MethodPut, "/api/tables/"+tid+"/cells", map[string]any{"value": "x"}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssetUploadDownload(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "menu.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("coffee 3.50"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "document", body["category"])
	assert.Equal(t, "11 Bytes", body["sizeLabel"])

	w = env.do(t, http.MethodGet, "/api/assets/"+body["id"].(string), nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coffee 3.50", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "menu.txt")
}

func TestChatHistory_LimitIsClamped(t *testing.T) {
	rec := &limitRecorder{}
	env := newTestEnv(t, func(s *setup) { s.history = rec })

	for _, q := range []string{"", "?limit=7", "?limit=-3", "?limit=2147483648", "?limit=junk"} {
		w := env.do(t, http.MethodGet, "/chat/history"+q, nil)
		require.Equal(t, http.StatusOK, w.Code, q)
	}
	assert.Equal(t, []int{
		repository.DefaultHistoryLimit,
		7,
		repository.DefaultHistoryLimit,
		repository.MaxListLimit,
		repository.DefaultHistoryLimit,
	}, rec.limits)
}

func TestEmailLogs_WithoutDatabase(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/emails/logs", nil, "Authorization", "Bearer "+env.signup(t))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "database_unavailable", decode(t, w)["kind"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	services := decode(t, w)["services"].(map[string]any)
	assert.Equal(t, "Disconnected", services["database"])
	assert.Equal(t, "Available", services["website_generation"])
	assert.Equal(t, "Not configured", services["email_generation"])
	assert.Equal(t, "Not configured", services["cache"])
}

func TestHealth_ReportsBreakerState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &llm.Stub{Err: &llm.Error{Provider: llm.ProviderGemini, Kind: llm.KindNetworkError, Err: errors.New("dial")}}
	guarded := llm.Guard(llm.ProviderGemini, stub, circuitbreaker.NewCircuitBreaker(llm.BreakerConfig(llm.ProviderGemini, nil)))
	for i := 0; i < 3; i++ {
		_, _ = guarded.Generate(context.Background(), llm.Request{Prompt: "p"})
	}

	h := &Health{Breakers: map[string]func() circuitbreaker.State{llm.ProviderGemini: guarded.State}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Handle(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{llm.ProviderGemini: "open"}, decode(t, w)["breakers"])
}

func TestNotFoundListsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Endpoint not found", body["error"])
	assert.NotEmpty(t, body["availableEndpoints"])
}

func TestTraceHeader(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/", nil, trace.RequestIDHeader, "req-123")
	assert.Equal(t, "req-123", w.Header().Get(trace.HeaderName))

	w = env.do(t, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Header().Get(trace.HeaderName))
}

func TestCORS(t *testing.T) {
	preflight := func(env *testEnv, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		return w
	}

	prod := newTestEnv(t)
	assert.Equal(t, "http://localhost:5173", preflight(prod, "http://localhost:5173").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight(prod, "http://localhost:9999").Header().Get("Access-Control-Allow-Origin"))

	dev := newTestEnv(t, func(s *setup) { s.server.DevMode = true })
	assert.Equal(t, "http://localhost:9999", preflight(dev, "http://localhost:9999").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight(dev, "https://evil.example").Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t, func(s *setup) { s.server.BodyLimit = 16 })
	w := env.do(t, http.MethodPost, "/chat", map[string]string{"message": strings.Repeat("x", 100)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body too large", decode(t, w)["error"])
}
