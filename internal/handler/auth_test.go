package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
	"github.com/iliyamo/billing-staff-auth/internal/config"
	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/service"
	"github.com/iliyamo/billing-staff-auth/internal/session"
)

// fakeAuth returns canned results per operation.
type fakeAuth struct {
	loginRes  *service.LoginResult
	checkRes  *service.CheckResult
	logoutRes *service.LogoutResult
	staff     model.StaffRecord
	err       error
	gotCreate service.CreateStaffInput
}

func (f *fakeAuth) Login(_ context.Context, in service.LoginInput, _ auth.Provider) (*service.LoginResult, error) {
	return f.loginRes, f.err
}

func (f *fakeAuth) CheckAuth(context.Context, auth.Provider) (*service.CheckResult, error) {
	return f.checkRes, f.err
}

func (f *fakeAuth) Logout(context.Context, auth.Provider) (*service.LogoutResult, error) {
	return f.logoutRes, f.err
}

func (f *fakeAuth) CreateStaff(_ context.Context, in service.CreateStaffInput, _ auth.Provider) (model.StaffRecord, error) {
	f.gotCreate = in
	return f.staff, f.err
}

func (f *fakeAuth) Profile(context.Context, auth.Provider) (model.StaffRecord, error) {
	return f.staff, f.err
}

func newHandler(f *fakeAuth) *AuthHandler {
	cookies := session.NewCookies(config.SessionConfig{
		Lifetime: 2 * time.Hour,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Secret:   "secret",
	})
	return NewAuthHandler(f, cookies, nil)
}

func call(t *testing.T, h echo.HandlerFunc, method, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestLoginSetsCookieAndReturnsToken(t *testing.T) {
	f := &fakeAuth{loginRes: &service.LoginResult{
		Staff:   model.StaffRecord{Name: "Bill", Username: "bill", Role: model.RoleBillHandler, Email: "bill@example.com"},
		User:    model.UserIdentity{ID: 9, Email: "bill@staff.com"},
		Token:   "1|abc",
		Session: &session.Session{ID: "sess"},
		Cookie:  session.SpecForRole(model.RoleBillHandler),
	}}
	h := newHandler(f)
	rec, body := call(t, h.Login, http.MethodPost, `{"username":"bill","password":"billpass1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true || body["token"] != "1|abc" || body["message"] != "Login successful!" {
		t.Errorf("body = %v", body)
	}
	user := body["user"].(map[string]any)
	if user["id"] != float64(9) || user["role"] != "bill handler" || user["email"] != "bill@example.com" {
		t.Errorf("user = %v", user)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "session_bill_handler" || ck.Path != "/bill-handler" || !ck.HttpOnly || ck.MaxAge != 7200 {
		t.Errorf("cookie = %+v", ck)
	}
}

func TestLoginErrors(t *testing.T) {
	verr := &service.ValidationError{}
	verr.Add("username", "The username field is required.")
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{service.ErrForbidden, http.StatusForbidden, "You do not have permission to access this system"},
		{service.ErrInternal, http.StatusInternalServerError, "An error occurred during login."},
		{verr, http.StatusUnprocessableEntity, "The given data was invalid."},
	}
	for _, tt := range tests {
		h := newHandler(&fakeAuth{err: tt.err})
		rec, body := call(t, h.Login, http.MethodPost, `{"username":"x","password":"y"}`)
		if rec.Code != tt.status || body["message"] != tt.msg {
			t.Errorf("%v: got %d %v", tt.err, rec.Code, body)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Errorf("%v: cookie set on failure", tt.err)
		}
	}
}

func TestLoginInvalidBody(t *testing.T) {
	rec, _ := call(t, newHandler(&fakeAuth{}).Login, http.MethodPost, `{`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	h := newHandler(&fakeAuth{logoutRes: &service.LogoutResult{Cookie: session.SpecForRole(model.RoleBillHandler)}})
	rec, body := call(t, h.Logout, http.MethodPost, "")
	if rec.Code != http.StatusOK || body["message"] != "Logged out successfully" {
		t.Fatalf("got %d %v", rec.Code, body)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "session_bill_handler" || ck.Path != "/bill-handler" || ck.MaxAge >= 0 {
		t.Errorf("cookie = %+v", ck)
	}
}

func TestLogoutWithoutCookieToClear(t *testing.T) {
	h := newHandler(&fakeAuth{logoutRes: &service.LogoutResult{}})
	rec, body := call(t, h.Logout, http.MethodPost, "")
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("got %d %v", rec.Code, body)
	}
	if n := len(rec.Result().Cookies()); n != 0 {
		t.Errorf("cookies = %d, want 0", n)
	}
}

func TestLogoutFailure(t *testing.T) {
	h := newHandler(&fakeAuth{err: service.ErrLogoutFailed})
	rec, body := call(t, h.Logout, http.MethodPost, "")
	if rec.Code != http.StatusInternalServerError || body["message"] != "Logout failed" || body["success"] != false {
		t.Errorf("got %d %v", rec.Code, body)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie touched on failed logout")
	}
}

func TestCheckAuth(t *testing.T) {
	h := newHandler(&fakeAuth{checkRes: &service.CheckResult{User: model.UserIdentity{ID: 3, Name: "ada"}, Token: "2|tok"}})
	rec, body := call(t, h.CheckAuth, http.MethodGet, "")
	if rec.Code != http.StatusOK || body["authenticated"] != true || body["token"] != "2|tok" {
		t.Errorf("got %d %v", rec.Code, body)
	}
	if _, leaked := body["user"].(map[string]any)["password"]; leaked {
		t.Error("identity leaks password hash")
	}
}

func TestCheckAuthUnauthenticated(t *testing.T) {
	h := newHandler(&fakeAuth{err: service.ErrUnauthenticated})
	rec, body := call(t, h.CheckAuth, http.MethodGet, "")
	if rec.Code != http.StatusUnauthorized || body["authenticated"] != false {
		t.Errorf("got %d %v", rec.Code, body)
	}
}

func TestCreateStaff(t *testing.T) {
	f := &fakeAuth{staff: model.StaffRecord{ID: 5, Name: "Jane", Username: "jdoe", PasswordHash: "$2a$secret", Role: model.RoleAdmin}}
	h := newHandler(f)
	rec, body := call(t, h.CreateStaff, http.MethodPost,
		`{"name":"Jane","username":"jdoe","password":"password123","role":"admin","address":"a","contact_number":"1","email":"j@x.io"}`)
	if rec.Code != http.StatusCreated || body["message"] != "Staff account created successfully" {
		t.Fatalf("got %d %v", rec.Code, body)
	}
	if f.gotCreate.ContactNumber != "1" || f.gotCreate.Password != "password123" {
		t.Errorf("bound input = %+v", f.gotCreate)
	}
	if strings.Contains(rec.Body.String(), "secret") || strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rec.Body.String())
	}
}

func TestCreateStaffValidationError(t *testing.T) {
	verr := &service.ValidationError{}
	verr.Add("username", "The username has already been taken.")
	h := newHandler(&fakeAuth{err: verr})
	rec, body := call(t, h.CreateStaff, http.MethodPost, `{"username":"ada"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	fields := body["errors"].(map[string]any)
	if msgs := fields["username"].([]any); len(msgs) != 1 || msgs[0] != "The username has already been taken." {
		t.Errorf("errors = %v", fields)
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	h := newHandler(&fakeAuth{err: errors.New("dial tcp 10.0.0.3:3306: connection refused")})
	rec, _ := call(t, h.Profile, http.MethodGet, "")
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestMeRequiresPrincipal(t *testing.T) {
	rec, _ := call(t, newHandler(&fakeAuth{}).Me, http.MethodGet, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
