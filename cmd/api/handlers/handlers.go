package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"folio/cmd/api/dto"
	"folio/services"
	"folio/validation"
)

// parseLimit 은 비어 있으면 0(서비스 기본값)을 돌려준다.
func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &services.ValidationError{Fields: []validation.FieldError{
			{Path: "limit", Message: "Limit must be a positive integer"},
		}}
	}
	return n, nil
}

func pageDTO(page *services.PostPage, summary bool) dto.CursorPage[dto.PostDTO] {
	return dto.CursorPage[dto.PostDTO]{
		Data:       dto.FromPosts(page.Posts, summary),
		Limit:      page.Limit,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
}

// ListPostsHandler godoc
// @Summary      List published posts
// @Description  공개 포스트를 최신순으로 조회합니다. search 는 잘라낸 페이지에 적용되므로 data 가 limit 보다 적어도 has_more 가 true 일 수 있습니다.
// @Tags         posts
// @Param        tag     query  string  false  "Tag (exact match)"
// @Param        search  query  string  false  "Case-insensitive substring of title/excerpt"
// @Param        limit   query  int     false  "Page size (<=100)"
// @Param        cursor  query  string  false  "Opaque cursor from next_cursor"
// @Produce      json
// @Success      200  {object}  dto.PostPageDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      503  {object}  dto.ErrorResponseDTO
// @Router       /posts [get]
func ListPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := parseLimit(c)
		if err != nil {
			respondError(c, err)
			return
		}
		page, err := svc.ListPublished(c.Request.Context(), services.ListPublishedInput{
			Tag:    c.Query("tag"),
			Search: c.Query("search"),
			Limit:  limit,
			Cursor: c.Query("cursor"),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pageDTO(page, true))
	}
}

// GetPostHandler godoc
// @Summary      Get post by slug
// @Description  공개 포스트 하나를 slug 로 조회합니다. 비공개 포스트는 404 입니다.
// @Tags         posts
// @Param        slug  path  string  true  "Post slug"
// @Produce      json
// @Success      200  {object}  dto.PostDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      503  {object}  dto.ErrorResponseDTO
// @Router       /posts/{slug} [get]
func GetPostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		if post == nil {
			respondError(c, services.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, dto.FromPost(*post))
	}
}

// GetAdjacentPostsHandler godoc
// @Summary      Get previous/next posts
// @Description  기준 포스트보다 바로 이전(오래된)/다음(최신) 공개 포스트를 조회합니다.
// @Tags         posts
// @Param        slug  path  string  true  "Anchor post slug"
// @Produce      json
// @Success      200  {object}  dto.AdjacentPostsDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /posts/{slug}/adjacent [get]
func GetAdjacentPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		adj, err := svc.Adjacent(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.AdjacentPostsDTO{
			Previous: dto.PostLink(adj.Previous),
			Next:     dto.PostLink(adj.Next),
		})
	}
}

// HealthHandler 는 ping 이 nil 이면 저장소 미구성으로 보고한다.
func HealthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "not_configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "up"})
	}
}
