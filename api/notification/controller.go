/*
Package notification - 管理员通知 API 控制器

铃铛下拉框：列表、未读数、标记已读、删除。
*/
package notification

import (
	"strconv"

	"duoadmin/api/ctxutil"
	"duoadmin/api/response"
	notificationapp "duoadmin/application/notification"
	"duoadmin/domain/notification"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"

	"github.com/gin-gonic/gin"
)

// Controller 通知控制器
type Controller struct {
	service *notificationapp.ApplicationService
}

// NewController 创建通知控制器
func NewController(service *notificationapp.ApplicationService) *Controller {
	return &Controller{service: service}
}

// RegisterRoutes 注册路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", c.List)
		notifications.GET("/stats", c.Stats)
		notifications.POST("/read-all", c.MarkAllRead)
		notifications.POST("/:id/read", c.MarkRead)
		notifications.DELETE("/:id", c.Delete)
	}
}

// List 通知列表
// GET /api/v1/notifications?unread=true&type=TOPUP
func (c *Controller) List(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	unread, _ := strconv.ParseBool(ctx.Query("unread"))
	items, err := c.service.Feed(ctx.Request.Context(), sess, notification.Query{
		UnreadOnly: unread,
		Type:       ctx.Query("type"),
	})
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, items, "notifications retrieved")
}

// Stats 总数和未读数
// GET /api/v1/notifications/stats
func (c *Controller) Stats(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	stats, err := c.service.Stats(ctx.Request.Context(), sess)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, stats, "notification stats retrieved")
}

// MarkRead POST /api/v1/notifications/:id/read
func (c *Controller) MarkRead(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := c.service.MarkRead(ctx.Request.Context(), sess, ctx.Param("id")); err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleNoContent(ctx)
}

// MarkAllRead POST /api/v1/notifications/read-all
func (c *Controller) MarkAllRead(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := c.service.MarkAllRead(ctx.Request.Context(), sess); err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleNoContent(ctx)
}

// Delete DELETE /api/v1/notifications/:id
func (c *Controller) Delete(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := c.service.Delete(ctx.Request.Context(), sess, ctx.Param("id")); err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleNoContent(ctx)
}

func (c *Controller) session(ctx *gin.Context) (session.Session, bool) {
	sess, ok := ctxutil.Session(ctx)
	if !ok {
		response.HandleAppError(ctx, shared.NewUnauthorizedError("missing bearer token"))
		return session.Session{}, false
	}
	return sess, true
}
