package ctxutil

import (
	"duoadmin/domain/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// SetSession 保存当前请求的操作员会话
func SetSession(ctx *gin.Context, s session.Session) {
	ctx.Set(sessionKey, s)
	ctx.Request = ctx.Request.WithContext(session.NewContext(ctx.Request.Context(), s))
}

// Session 取出会话；未经过 SessionMiddleware 的请求返回 false
func Session(ctx *gin.Context) (session.Session, bool) {
	if v, ok := ctx.Get(sessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s, true
		}
	}
	return session.FromContext(ctx.Request.Context())
}
