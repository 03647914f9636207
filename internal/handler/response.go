package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string, fields map[string][]string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
		Errors:  fields,
	})
}

// HandleError 业务错误到 HTTP 状态码的唯一转换点。release 模式下隐藏内部错误信息。
func HandleError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal("internal server error", err)
	}

	message := appErr.Msg
	if appErr.Kind == apperror.KindInternal {
		logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		if gin.Mode() == gin.ReleaseMode {
			message = "internal server error"
		} else {
			message = err.Error()
		}
	}

	ErrorResponse(c, appErr.Kind.HTTPStatus(), message, appErr.Fields)
}

// bindJSON 绑定请求体，失败时写入 400 并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleError(c, bindingError(err))
		return false
	}
	return true
}

// bindOptionalJSON 同 bindJSON，但允许空请求体
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		HandleError(c, bindingError(err))
		return false
	}
	return true
}

// bindingError 将绑定错误转换为按字段归类的校验错误
func bindingError(err error) *apperror.Error {
	verr := apperror.Validation("invalid request")

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fe := range validationErrs {
			verr.AddField(fe.Field(), validationMessage(fe))
		}
		return verr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return verr.AddField(typeErr.Field, fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
	}

	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		verr.Msg = "invalid time, expected RFC3339"
		return verr
	}

	verr.Msg = "malformed request body"
	return verr
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

// parseID 解析路径中的 id
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		HandleError(c, apperror.ValidationField(name, "invalid "+name))
		return 0, false
	}
	return id, true
}

// queryInt64 解析可选的整数查询参数
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.ValidationField(name, name+" must be an integer")
	}
	return &v, nil
}

// queryTime 解析可选的 RFC3339 时间查询参数
func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.ValidationField(name, name+" must be an RFC3339 time")
	}
	return &v, nil
}

// queryPage 解析分页参数
func queryPage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, pageSize
}
