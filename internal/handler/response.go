package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"duo_chat_server/pkg/errorx"
)

// HTTP 与 WebSocket 共用同一信封：{success, code, message, data}

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"code":    errorx.CodeSuccess,
		"message": "成功",
		"data":    data,
	})
}

// HandleError 通用错误处理
// 业务错误原样返回错误码和消息，系统错误记日志并返回统一提示
func HandleError(c *gin.Context, err error) {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		switch codeErr.Code {
		case errorx.CodeDBError, errorx.CodeCacheError:
			// 内部错误细节不出网
		default:
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"code":    codeErr.Code,
				"message": codeErr.Msg,
				"data":    nil,
			})
			return
		}
	}

	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"code":    errorx.ErrServerBusy.Code,
		"message": errorx.ErrServerBusy.Msg,
		"data":    nil,
	})
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		translatedErrs := RemoveTopStruct(validationErrs.Translate(Trans))
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"code":    errorx.ErrInvalidParam.Code,
			"message": translatedErrs,
			"data":    nil,
		})
		return
	}

	zap.L().Error("param bind error", zap.Error(err))
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"code":    errorx.ErrInvalidParam.Code,
		"message": errorx.ErrInvalidParam.Msg,
		"data":    nil,
	})
}
