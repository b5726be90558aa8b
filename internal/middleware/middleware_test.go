package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-pos-rd/internal/metrics"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/service"
)

// fakeAuth accepts the tokens it knows about.
type fakeAuth struct {
	service.AuthService
	users map[string]*model.User
	errs  map[string]error
}

func (f *fakeAuth) Authenticate(token string) (*model.User, error) {
	if err, ok := f.errs[token]; ok {
		return nil, err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrInvalidToken
}

func userWith(role string, privileges ...string) *model.User {
	r := &model.Role{Code: role}
	for _, p := range privileges {
		r.Privileges = append(r.Privileges, model.Privilege{Code: p})
	}
	return &model.User{BaseModel: model.BaseModel{ID: uuid.New()}, Email: role + "@example.com", FullName: role, IsActive: true, Role: r}
}

func errorOf(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	msg, _ := payload["error"].(string)
	return msg
}

func newAuthApp(auth service.AuthService, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{RequireAuth(auth, "pos_session")}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id"), "role": c.Locals("user_role")})
	})
	app.Get("/private", handlers...)
	return app
}

func TestTokenFromRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(TokenFromRequest(c, "pos_session"))
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer  abc ", "", "abc"},
		{"cookie fallback", "", "from-cookie", "from-cookie"},
		{"other scheme ignores cookie", "Basic abc", "from-cookie", ""},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", "pos_session="+tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestRequireAuth(t *testing.T) {
	cashier := userWith(model.RoleCashier, model.PrivSaleCreate)
	auth := &fakeAuth{
		users: map[string]*model.User{"good": cashier},
		errs:  map[string]error{"replaced": service.ErrSessionReplaced},
	}
	app := newAuthApp(auth)

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token de autorización requerido", errorOf(t, resp.Body))

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer replaced")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, service.ErrSessionReplaced.Error(), errorOf(t, resp.Body))

	req = httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, cashier.ID.String(), payload["user_id"])
	assert.Equal(t, model.RoleCashier, payload["role"])
}

func TestRequireRoleAndPrivilege(t *testing.T) {
	auth := &fakeAuth{users: map[string]*model.User{
		"admin":    userWith(model.RoleAdmin),
		"manager":  userWith(model.RoleManager, model.PrivSaleCancel),
		"cashier":  userWith(model.RoleCashier, model.PrivSaleCreate),
		"reporter": userWith(model.RoleReporter, model.PrivReportView),
	}}

	tests := []struct {
		name  string
		guard fiber.Handler
		want  map[string]int
	}{
		{
			name:  "role",
			guard: RequireRole(model.RoleManager),
			want:  map[string]int{"admin": 200, "manager": 200, "cashier": 403, "reporter": 403},
		},
		{
			name:  "privilege",
			guard: RequirePrivilege(model.PrivSaleCancel),
			want:  map[string]int{"admin": 403, "manager": 200, "cashier": 403},
		},
		{
			name:  "any privilege",
			guard: RequireAnyPrivilege(model.PrivSaleCreate, model.PrivReportView),
			want:  map[string]int{"manager": 403, "cashier": 200, "reporter": 200},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthApp(auth, tt.guard)
			for token, status := range tt.want {
				req := httptest.NewRequest("GET", "/private", nil)
				req.Header.Set("Authorization", "Bearer "+token)
				resp, err := app.Test(req)
				require.NoError(t, err)
				assert.Equal(t, status, resp.StatusCode, token)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("request_id").(string))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderRequestID, "caja-01-req-7")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "caja-01-req-7", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	generated := resp.Header.Get(HeaderRequestID)
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, generated, string(body))
}

func TestAccessLogAndMetrics(t *testing.T) {
	m := metrics.New()
	app := fiber.New()
	app.Use(AccessLog(zap.NewNop()))
	app.Use(Metrics(m))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return fiber.ErrNotFound
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, id := range []string{"a", "b", "missing"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/items/"+id, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `pos_http_requests_total{method="GET",route="/items/:id",status="204"} 2`)
	assert.Contains(t, body, `pos_http_requests_total{method="GET",route="/items/:id",status="404"} 1`)
}
