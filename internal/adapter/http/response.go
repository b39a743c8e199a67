package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/sirupsen/logrus"
)

func respondOK(c *gin.Context, message string, data interface{}) {
	if message == "" {
		message = constants.SuccessMessage
	}
	c.JSON(http.StatusOK, APIResponse{Code: 0, Message: message, Data: data})
}

// respondError 按错误码映射HTTP状态
func respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	resp := ErrorResponse{Code: status, Message: err.Error()}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		if appErr.Cause != nil {
			resp.Details = appErr.Cause.Error()
		}
	}

	entry := logger.WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
		"error":  err.Error(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("请求处理失败")
	} else {
		entry.Warn("请求被拒绝")
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, message string, err error) {
	if err != nil {
		respondError(c, errors.Wrap(errors.ErrInvalidParameter, message, err))
		return
	}
	respondError(c, errors.New(errors.ErrInvalidParameter, message))
}
