package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthTestRouter 构造一个挂载接警鉴权中间件的测试路由
func newAuthTestRouter() (*gin.Engine, services.InterfaceJWTService) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecretKey: "test-secret-key"}
	InitAuthMiddleware(cfg, nil)

	r := gin.New()
	r.POST("/respond", AuthenticateResponder(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": CurrentRole(c)})
	})
	return r, services.NewJWTService(cfg, nil)
}

func TestAuthenticateResponderRoles(t *testing.T) {
	r, jwtSvc := newAuthTestRouter()

	cases := []struct {
		role   string
		status int
	}{
		{models.RolePolice, http.StatusOK},
		{models.RoleHospital, http.StatusOK},
		{models.RoleFire, http.StatusOK},
		{models.RoleFamily, http.StatusOK}, // 家庭成员接警family类型警报
		{models.RoleAdmin, http.StatusOK},
		{models.RoleCitizen, http.StatusForbidden},
	}

	for _, tc := range cases {
		user := &models.User{
			BaseModel: models.BaseModel{ID: 7},
			Name:      "测试用户",
			Role:      tc.role,
		}
		token, err := jwtSvc.GenerateToken(user)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/respond", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, tc.status, w.Code, "角色 %s", tc.role)
		if tc.status == http.StatusOK {
			assert.Contains(t, w.Body.String(), tc.role)
		}
	}
}

func TestAuthenticateResponderRejectsBadTokens(t *testing.T) {
	r, _ := newAuthTestRouter()

	// 缺少授权头
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/respond", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 无效token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/respond", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
