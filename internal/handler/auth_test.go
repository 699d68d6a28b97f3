package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruelux/pos/internal/auth"
	"github.com/ruelux/pos/internal/erp"
	"github.com/ruelux/pos/internal/handler"
)

// --- Mocks ---

type mockERPAuth struct {
	loginFn      func(ctx context.Context, usr, pwd string) (erp.LoginResult, error)
	logoutFn     func(ctx context.Context) error
	loggedUserFn func(ctx context.Context) (string, error)
	userRolesFn  func(ctx context.Context, email string) ([]string, error)
}

func (m *mockERPAuth) Login(ctx context.Context, usr, pwd string) (erp.LoginResult, error) {
	return m.loginFn(ctx, usr, pwd)
}

func (m *mockERPAuth) Logout(ctx context.Context) error {
	return m.logoutFn(ctx)
}

func (m *mockERPAuth) LoggedUser(ctx context.Context) (string, error) {
	return m.loggedUserFn(ctx)
}

func (m *mockERPAuth) UserRoles(ctx context.Context, email string) ([]string, error) {
	return m.userRolesFn(ctx, email)
}

type mockDropper struct {
	dropped []string
}

func (m *mockDropper) Drop(session string) {
	m.dropped = append(m.dropped, session)
}

func newLoginERP(t *testing.T) *mockERPAuth {
	return &mockERPAuth{
		loginFn: func(_ context.Context, usr, pwd string) (erp.LoginResult, error) {
			if usr != "chef@x.com" || pwd != "secret" {
				return erp.LoginResult{}, erp.ErrUnauthorized
			}
			return erp.LoginResult{SessionID: "sid-1", FullName: "Carla Chef"}, nil
		},
		userRolesFn: func(ctx context.Context, email string) ([]string, error) {
			if sid := erp.SessionFrom(ctx); sid != "sid-1" {
				t.Errorf("roles read with session %q, want sid-1", sid)
			}
			return []string{"Employee", "Chef"}, nil
		},
	}
}

func authRouter(h *handler.AuthHandler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		h.RegisterSessionRoutes(r)
	})
	return r
}

// --- Login tests ---

func TestLogin_Success(t *testing.T) {
	h := handler.NewAuthHandler(newLoginERP(t), &mockDropper{}, testSecret, time.Hour)

	rr := doRequest(t, authRouter(h), "POST", "/auth/login", "", map[string]string{
		"email":    " chef@x.com ",
		"password": "secret",
	})
	assertStatus(t, rr, http.StatusOK)

	resp := decodeResponse(t, rr)
	token, _ := resp["token"].(string)
	claims, err := auth.ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Role != "Chef" || claims.ERPSession != "sid-1" || claims.FullName != "Carla Chef" {
		t.Errorf("claims: got %+v", claims)
	}

	user := resp["user"].(map[string]interface{})
	if user["role"] != "Chef" || user["initial_tab"] != "New" || user["show_totals"] != false {
		t.Errorf("user: got %v", user)
	}
	if tabs := user["tabs"].([]interface{}); len(tabs) != 3 {
		t.Errorf("tabs: got %v", tabs)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"wrong password", map[string]string{"email": "chef@x.com", "password": "nope"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "chef@x.com"}, http.StatusBadRequest},
		{"bad body", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewAuthHandler(newLoginERP(t), &mockDropper{}, testSecret, time.Hour)
			rr := doRequest(t, authRouter(h), "POST", "/auth/login", "", tt.body)
			assertStatus(t, rr, tt.want)
		})
	}
}

func TestLogin_ERPDown(t *testing.T) {
	m := newLoginERP(t)
	m.loginFn = func(context.Context, string, string) (erp.LoginResult, error) {
		return erp.LoginResult{}, &erp.APIError{Status: 500, Message: "boom"}
	}
	h := handler.NewAuthHandler(m, &mockDropper{}, testSecret, time.Hour)

	rr := doRequest(t, authRouter(h), "POST", "/auth/login", "", map[string]string{"email": "chef@x.com", "password": "secret"})
	assertStatus(t, rr, http.StatusBadGateway)
}

// --- Logout / Me tests ---

func TestLogout_DropsCartEvenWhenERPFails(t *testing.T) {
	m := &mockERPAuth{logoutFn: func(ctx context.Context) error {
		if erp.SessionFrom(ctx) != "sid-test" {
			t.Error("logout should carry the erp session")
		}
		return errors.New("erp unreachable")
	}}
	carts := &mockDropper{}
	h := handler.NewAuthHandler(m, carts, testSecret, time.Hour)

	token, claims, err := auth.GenerateToken(testSecret, time.Hour, auth.Identity{Email: "w@x.com", Role: "Waiter", ERPSession: "sid-test"})
	if err != nil {
		t.Fatal(err)
	}

	rr := doRequest(t, authRouter(h), "POST", "/auth/logout", token, nil)
	assertStatus(t, rr, http.StatusOK)
	if len(carts.dropped) != 1 || carts.dropped[0] != claims.SessionID.String() {
		t.Errorf("dropped: got %v, want [%s]", carts.dropped, claims.SessionID)
	}
}

func TestMe(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		err    error
		status int
	}{
		{"alive", "Wendy@X.com", nil, http.StatusOK},
		{"other user", "someone@x.com", nil, http.StatusUnauthorized},
		{"expired", "", erp.ErrUnauthorized, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockERPAuth{loggedUserFn: func(context.Context) (string, error) { return tt.user, tt.err }}
			h := handler.NewAuthHandler(m, &mockDropper{}, testSecret, time.Hour)

			rr := doRequest(t, authRouter(h), "GET", "/auth/me", tokenFor(t, "wendy@x.com", "Waiter"), nil)
			assertStatus(t, rr, tt.status)
			resp := decodeResponse(t, rr)
			if tt.status == http.StatusUnauthorized && resp["login"] != "/login" {
				t.Errorf("401 should point at the login screen: %v", resp)
			}
			if tt.status == http.StatusOK && resp["show_totals"] != true {
				t.Errorf("waiter sees totals: %v", resp)
			}
		})
	}
}

func TestMe_NoToken(t *testing.T) {
	h := handler.NewAuthHandler(&mockERPAuth{}, &mockDropper{}, testSecret, time.Hour)
	rr := doRequest(t, authRouter(h), "GET", "/auth/me", "", nil)
	assertStatus(t, rr, http.StatusUnauthorized)
}
