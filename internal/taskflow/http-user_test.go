package taskflow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/dao"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesMiddleware(t *testing.T) {
	e := echo.New()
	handler := RolesMiddleware(types.RoleAdmin, types.RoleManager)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		name      string
		role      types.UserRole
		superuser bool
		status    int
	}{
		{"admin allowed", types.RoleAdmin, false, http.StatusOK},
		{"manager allowed", types.RoleManager, false, http.StatusOK},
		{"developer denied", types.RoleDeveloper, false, http.StatusForbidden},
		{"reporter denied", types.RoleReporter, false, http.StatusForbidden},
		{"superuser bypasses roles", types.RoleReporter, true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/users/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			user := dao.User{Role: tt.role, IsSuperuser: tt.superuser}
			err := handler(AuthContext{Context: c, User: &user})
			require.NoError(t, err)
			assert.Equal(t, tt.status, rec.Code)

			if tt.status == http.StatusForbidden {
				var body apierrors.DefinedError
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, apierrors.ErrInsufficientRole.Code, body.Code)
			}
		})
	}
}
