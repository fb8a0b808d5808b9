package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordmark-digital/portal/internal/model"
)

func TestListUsers(t *testing.T) {
	users := newFakeUsers(
		model.User{ID: 1, Email: "admin@x.com", Role: model.RoleAdmin},
		model.User{ID: 2, Email: "client@x.com", Role: model.RoleClient},
	)
	h := NewAdminHandler(users)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ListUsers(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin@x.com")
	assert.Contains(t, rec.Body.String(), "client@x.com")
}

func TestListUsersStoreError(t *testing.T) {
	users := newFakeUsers()
	users.listErr = fmt.Errorf("store unreachable")
	h := NewAdminHandler(users)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	_ = h.ListUsers(e.NewContext(req, rec))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateUser(t *testing.T) {
	users := newFakeUsers()
	h := NewAdminHandler(users)

	rec := doPost(h.CreateUser, "/admin/users", `{"email":"New@X.Com","name":"New Client"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new@x.com"`)
	assert.Contains(t, rec.Body.String(), `"client"`, "role defaults to client")

	u, err := users.GetByEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, u.Role)
}

func TestCreateUserAdminRole(t *testing.T) {
	h := NewAdminHandler(newFakeUsers())
	rec := doPost(h.CreateUser, "/admin/users", `{"email":"boss@x.com","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"admin"`)
}

func TestCreateUserValidation(t *testing.T) {
	h := NewAdminHandler(newFakeUsers(model.User{ID: 1, Email: "dup@x.com", Role: model.RoleClient}))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing email", `{"name":"Nobody"}`, "email is required"},
		{"invalid role", `{"email":"a@x.com","role":"superuser"}`, "invalid role"},
		{"duplicate email", `{"email":"dup@x.com"}`, "user already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doPost(h.CreateUser, "/admin/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, bodyField(t, rec, "error"))
		})
	}
}

func deleteUser(h *AdminHandler, id string, callerID uint64) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/admin/users/"+id, strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if callerID != 0 {
		c.Set("user_id", callerID)
	}
	_ = h.DeleteUser(c)
	return rec
}

func TestDeleteUser(t *testing.T) {
	users := newFakeUsers(
		model.User{ID: 1, Email: "admin@x.com", Role: model.RoleAdmin},
		model.User{ID: 2, Email: "client@x.com", Role: model.RoleClient},
	)
	h := NewAdminHandler(users)

	rec := deleteUser(h, "2", 1)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uint64{2}, users.deleted)
}

func TestDeleteUserSelf(t *testing.T) {
	users := newFakeUsers(model.User{ID: 1, Email: "admin@x.com", Role: model.RoleAdmin})
	h := NewAdminHandler(users)

	rec := deleteUser(h, "1", 1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot delete your own account")
	assert.Empty(t, users.deleted)
}

func TestDeleteUserNotFound(t *testing.T) {
	h := NewAdminHandler(newFakeUsers())
	rec := deleteUser(h, "42", 1)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUserBadID(t *testing.T) {
	h := NewAdminHandler(newFakeUsers())
	for _, id := range []string{"abc", "0", "-1"} {
		rec := deleteUser(h, id, 1)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
	}
}
