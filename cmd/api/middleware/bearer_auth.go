package middleware

import (
	"github.com/gin-gonic/gin"

	"folio/cmd/api/auth"
	apiservices "folio/cmd/api/services"
	"folio/logger"
)

// RequireSession 은 Authorization 헤더의 세션 토큰을 검증하고 클레임을 컨텍스트에 저장한다.
// 로그인한 사용자는 모두 자신의 포스트를 관리할 수 있으므로 role 은 따로 보지 않는다.
func RequireSession(authSvc *apiservices.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}

		claims, err := authSvc.Authenticate(token)
		if err != nil {
			logger.DebugWithFields("session token rejected", logger.Fields{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			auth.AbortWithUnauthorized(c, apiservices.ErrInvalidSession)
			return
		}

		auth.SetClaims(c, claims)
		c.Next()
	}
}
