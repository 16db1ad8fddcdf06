package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/cmd/api/dto"
	"folio/imagecdn"
	"folio/services"
	"folio/validation"
)

// ImageUploader 는 imagecdn.Client 의 업로드 기능이다.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, data []byte) (*imagecdn.Image, error)
}

// 10MB 제한보다 조금 더 읽어야 imagecdn 이 크기 초과를 판단할 수 있다.
const maxUploadRead = 64 << 20

// UploadImageHandler godoc
// @Summary      Upload image
// @Description  multipart 의 file 필드를 이미지 CDN 에 올립니다. CDN 이 설정되지 않은 개발 환경에서는 200KB 이하 파일을 data URL 로 돌려줍니다.
// @Tags         admin
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Image file"
// @Success      201  {object}  dto.ImageUploadDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      502  {object}  dto.ErrorResponseDTO
// @Router       /admin/images [post]
func UploadImageHandler(uploader ImageUploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			respondError(c, &services.ValidationError{Fields: []validation.FieldError{
				{Path: "file", Message: imagecdn.ErrNotImage.Error()},
			}})
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, maxUploadRead))
		if err != nil {
			respondError(c, err)
			return
		}

		img, err := uploader.Upload(c.Request.Context(), fh.Filename, data)
		if err != nil {
			switch {
			case errors.Is(err, imagecdn.ErrUploadFailed):
				c.JSON(http.StatusBadGateway, dto.ErrorResponseDTO{Error: "upload_failed", Message: err.Error()})
			case errors.Is(err, imagecdn.ErrEmpty), errors.Is(err, imagecdn.ErrNotImage),
				errors.Is(err, imagecdn.ErrTooLarge), errors.Is(err, imagecdn.ErrTooLargeForFallback):
				respondError(c, &services.ValidationError{Fields: []validation.FieldError{
					{Path: "file", Message: err.Error()},
				}})
			default:
				respondError(c, err)
			}
			return
		}

		c.JSON(http.StatusCreated, dto.ImageUploadDTO{
			URL:         img.URL,
			ThumbURL:    imagecdn.OptimizedURL(img.URL, 800, 0),
			ContentType: img.ContentType,
			Size:        img.Size,
			Fallback:    img.Fallback,
		})
	}
}
