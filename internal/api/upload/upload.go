package upload

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/logeshtheni/sevenxt/internal/storage"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

const maxProofImageSize = 5 << 20 // 5MB

var allowedImageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// UploadHandler 处理凭证图片上传
type UploadHandler struct {
	store storage.Storage
}

func NewUploadHandler(store storage.Storage) *UploadHandler {
	return &UploadHandler{store}
}

// UploadProofImage 客户上传换货/退款凭证图片，返回存储路径
// 返回的路径填入申请的 proof_image_path 字段
func (h *UploadHandler) UploadProofImage(c *gin.Context) {
	fileHeader, err := c.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Missing proof file",
		})
		return
	}

	if fileHeader.Size > maxProofImageSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "File too large, max 5MB",
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := allowedImageExts[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Only jpg, png and webp images are allowed",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "Failed to read uploaded file",
		})
		return
	}

	path := "proofs/" + util.GenerateUniqueFilename(fileHeader.Filename)
	stored, err := h.store.Save(path, data, contentType)
	if err != nil {
		util.Logger.Error("保存凭证图片失败", zap.Error(err), zap.String("path", path))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "Failed to store file",
		})
		return
	}

	util.Logger.Info("凭证图片上传成功", zap.String("path", stored))
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"path": stored},
	})
}
