package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/cmd/api/auth"
	"folio/cmd/api/dto"
	apiservices "folio/cmd/api/services"
)

func userDTO(u auth.User) dto.UserDTO {
	return dto.UserDTO{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName}
}

// LoginHandler godoc
// @Summary      Sign in with email and password
// @Description  identity provider 로 로그인한 뒤 세션 토큰을 발급합니다. 실패 시 error 에 실패 사유 코드(invalid_email, user_not_found, wrong_password, invalid_credentials, user_disabled, too_many_attempts, unknown)가 담깁니다.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequestDTO  true  "Credentials"
// @Success      200  {object}  dto.SessionDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      503  {object}  dto.ErrorResponseDTO
// @Router       /auth/login [post]
func LoginHandler(authSvc *apiservices.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.LoginRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidBody(c, err)
			return
		}

		sess, err := authSvc.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.SessionDTO{
			Token:     sess.Token,
			ExpiresAt: sess.ExpiresAt,
			User:      userDTO(sess.User),
		})
	}
}

// LogoutHandler godoc
// @Summary      Sign out
// @Description  현재 세션 토큰을 폐기합니다.
// @Tags         auth
// @Param        Authorization  header  string  true  "Bearer 세션 토큰"
// @Produce      json
// @Success      200  {object}  dto.MessageResponseDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /auth/logout [post]
func LogoutHandler(authSvc *apiservices.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}
		if err := authSvc.SignOut(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "signed out"})
	}
}

// CurrentUserHandler godoc
// @Summary      Current user
// @Description  세션 토큰의 사용자 정보를 조회합니다.
// @Tags         auth
// @Param        Authorization  header  string  true  "Bearer 세션 토큰"
// @Produce      json
// @Success      200  {object}  dto.UserDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /auth/me [get]
func CurrentUserHandler(authSvc *apiservices.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}
		u := authSvc.CurrentUser(token)
		if u == nil {
			auth.AbortWithUnauthorized(c, apiservices.ErrInvalidSession)
			return
		}
		c.JSON(http.StatusOK, userDTO(*u))
	}
}
