package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind 错误类别
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:       "INTERNAL",
	KindValidation:     "VALIDATION_ERROR",
	KindAuthentication: "AUTHENTICATION_ERROR",
	KindAuthorization:  "AUTHORIZATION_ERROR",
	KindNotFound:       "NOT_FOUND",
	KindConflict:       "CONFLICT",
}

var kindStatus = map[Kind]int{
	KindInternal:       http.StatusInternalServerError,
	KindValidation:     http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindInternal]
}

// HTTPStatus 错误类别对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error 业务错误
type Error struct {
	Kind   Kind
	Msg    string              // 返回给调用方的信息
	Err    error               // 仅记录日志的底层错误
	Fields map[string][]string // 按字段归类的校验错误
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AddField 追加字段校验错误
func (e *Error) AddField(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

func New(kind Kind, msg string, underlying error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: underlying}
}

func Validation(msg string) *Error {
	return New(KindValidation, msg, nil)
}

// ValidationField 单字段校验错误
func ValidationField(field, msg string) *Error {
	return Validation(msg).AddField(field, msg)
}

func Authentication(msg string) *Error {
	return New(KindAuthentication, msg, nil)
}

func Authorization(msg string) *Error {
	return New(KindAuthorization, msg, nil)
}

func NotFound(msg string) *Error {
	return New(KindNotFound, msg, nil)
}

func Conflict(msg string) *Error {
	return New(KindConflict, msg, nil)
}

func Internal(msg string, err error) *Error {
	return New(KindInternal, msg, err)
}

// KindOf 提取错误类别，非业务错误视为内部错误
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind 判断错误类别
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// IsUniqueViolation 判断是否违反唯一约束（postgres 23505 / sqlite UNIQUE）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FromStore 将存储层错误转换为业务错误
func FromStore(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(notFoundMsg)
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("store operation failed", err)
}
