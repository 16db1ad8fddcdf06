package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/cmd/api/auth"
	"folio/cmd/api/dto"
	"folio/models"
	"folio/services"
)

// ownerID 는 AdminAuth 미들웨어가 저장한 클레임의 subject 다.
func ownerID(c *gin.Context) string {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return ""
	}
	return claims.Subject
}

// AdminListPostsHandler godoc
// @Summary      List my posts
// @Description  로그인한 작성자의 포스트(비공개 포함)를 수정일 최신순으로 조회합니다.
// @Tags         admin
// @Security     BearerAuth
// @Param        limit   query  int     false  "Page size (<=100)"
// @Param        cursor  query  string  false  "Opaque cursor from next_cursor"
// @Produce      json
// @Success      200  {object}  dto.PostPageDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts [get]
func AdminListPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := parseLimit(c)
		if err != nil {
			respondError(c, err)
			return
		}
		page, err := svc.ListForOwner(c.Request.Context(), ownerID(c), limit, c.Query("cursor"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pageDTO(page, true))
	}
}

// AdminGetPostHandler godoc
// @Summary      Get my post
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.PostDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id} [get]
func AdminGetPostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.GetForOwner(c.Request.Context(), c.Param("id"), ownerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromPost(*post))
	}
}

// CreatePostHandler godoc
// @Summary      Create post
// @Description  새 포스트를 만듭니다. slug 가 이미 있으면 409 입니다.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  models.PostInput  true  "Post"
// @Success      201  {object}  dto.PostDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts [post]
func CreatePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.PostInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondInvalidBody(c, err)
			return
		}
		post, err := svc.Create(c.Request.Context(), in, ownerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.FromPost(*post))
	}
}

// UpdatePostHandler godoc
// @Summary      Update post
// @Description  보낸 필드만 수정합니다. 최소 한 개 필드가 필요하며 수정 후 작성자의 초안은 폐기됩니다.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ObjectID"
// @Param        body  body  models.PostPatch  true  "Changed fields"
// @Success      200  {object}  dto.PostDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id} [patch]
func UpdatePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.PostPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			respondInvalidBody(c, err)
			return
		}
		post, err := svc.Update(c.Request.Context(), c.Param("id"), patch, ownerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromPost(*post))
	}
}

// DeletePostHandler godoc
// @Summary      Delete post
// @Description  포스트를 삭제합니다. 커버 이미지 정리는 비동기로 수행됩니다.
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id} [delete]
func DeletePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id"), ownerID(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GetDraftHandler godoc
// @Summary      Get autosaved draft
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "Post ObjectID"
// @Produce      json
// @Success      200  {object}  dto.DraftDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id}/draft [get]
func GetDraftHandler(svc *services.DraftService) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.GetDraft(c.Request.Context(), ownerID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if d == nil {
			c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not_found", Message: "No draft saved"})
			return
		}
		c.JSON(http.StatusOK, dto.FromDraft(*d))
	}
}

// SaveDraftHandler godoc
// @Summary      Autosave draft
// @Description  편집 중인 내용을 저장합니다. 검증하지 않으며 포스트당 하나만 유지됩니다.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "Post ObjectID"
// @Param        body  body  models.DraftFields  true  "Draft fields"
// @Success      200  {object}  dto.DraftDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id}/draft [put]
func SaveDraftHandler(svc *services.DraftService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var fields models.DraftFields
		if err := c.ShouldBindJSON(&fields); err != nil {
			respondInvalidBody(c, err)
			return
		}
		d, err := svc.SaveDraft(c.Request.Context(), ownerID(c), c.Param("id"), fields)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromDraft(*d))
	}
}

// DiscardDraftHandler godoc
// @Summary      Discard draft
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "Post ObjectID"
// @Success      204
// @Router       /admin/posts/{id}/draft [delete]
func DiscardDraftHandler(svc *services.DraftService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DiscardDraft(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
