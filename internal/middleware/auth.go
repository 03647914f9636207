package middleware

import (
	"errors"
	"strings"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/auth"
	"github.com/blues/catalyst/internal/logger"
	"github.com/blues/catalyst/internal/model"
	"github.com/blues/catalyst/internal/policy"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const actorKey = "catalyst.actor"

// ErrorWriter 将错误写入响应，由 handler 包提供
type ErrorWriter func(c *gin.Context, err error)

// Auth 校验 bearer token，并从数据库加载当前用户。角色以数据库为准。
func Auth(db *gorm.DB, tokens *auth.TokenManager, writeError ErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			writeError(c, apperror.Authentication("missing bearer token"))
			c.Abort()
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			logger.Debug("Rejected token: %v", err)
			writeError(c, apperror.Authentication("invalid or expired token"))
			c.Abort()
			return
		}

		var user model.UserModel
		if err := db.WithContext(c.Request.Context()).Take(&user, claims.UserId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(c, apperror.Authentication("user no longer exists"))
			} else {
				writeError(c, apperror.Internal("failed to load user", err))
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			writeError(c, apperror.Authentication("user is inactive"))
			c.Abort()
			return
		}

		c.Set(actorKey, policy.Actor{Id: user.Id, Role: user.Role})
		c.Next()
	}
}

// CurrentActor 获取当前请求的操作者
func CurrentActor(c *gin.Context) (policy.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok
}
