/*
Package console - 管理后台 API 控制器

职责:
1. 解析页面状态（搜索、筛选、排序、分页）和操作请求
2. 调用 console 应用服务
3. 使用 response 包统一处理响应和错误

所有路由都需要 SessionMiddleware 提供的操作员会话。
*/
package console

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"duoadmin/api/ctxutil"
	"duoadmin/api/response"
	consoleapp "duoadmin/application/console"
	"duoadmin/domain/action"
	"duoadmin/domain/audit"
	"duoadmin/domain/entity"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Controller 管理后台控制器
type Controller struct {
	service *consoleapp.ApplicationService
}

// NewController 创建管理后台控制器
func NewController(service *consoleapp.ApplicationService) *Controller {
	return &Controller{service: service}
}

// RegisterRoutes 注册路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	pages := router.Group("/pages/:entity")
	{
		pages.GET("", c.View)
		pages.POST("/reload", c.Reload)
		pages.DELETE("", c.Close)
		pages.GET("/counts", c.Counts)
		pages.GET("/options/:field", c.Options)
		pages.GET("/export", c.Export)
	}

	entities := router.Group("/entities/:entity")
	{
		entities.POST("", c.Create)
		entities.GET("/:id", c.Detail)
		entities.POST("/:id/actions/:kind", c.Perform)
	}

	router.GET("/summary", c.Summary)
	router.GET("/audit", c.Audit)
}

// View 返回一页数据
// GET /api/v1/pages/:entity?search=&status=&min_price=&from_createdAt=&sort=&dir=&page=&page_size=&reload=
func (c *Controller) View(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}
	reload, _ := strconv.ParseBool(ctx.Query("reload"))

	view, err := c.service.View(ctx.Request.Context(), sess, consoleapp.ViewRequest{
		Entity: e,
		State:  ParseState(e, ctx.Request.URL.Query()),
		Reload: reload,
	})
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "page loaded")
}

// Reload 重新拉取数据，保留当前筛选条件
// POST /api/v1/pages/:entity/reload
func (c *Controller) Reload(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}
	view, err := c.service.Reload(ctx.Request.Context(), sess, e)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "page reloaded")
}

// Close 关闭页面，未完成的加载会被取消
// DELETE /api/v1/pages/:entity
func (c *Controller) Close(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}
	c.service.Close(sess, e)
	response.HandleNoContent(ctx)
}

// Counts 各状态数量
// GET /api/v1/pages/:entity/counts
func (c *Controller) Counts(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}
	counts, err := c.service.Counts(ctx.Request.Context(), sess, e)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, counts, "counts retrieved")
}

// Options 筛选下拉框的可选值
// GET /api/v1/pages/:entity/options/:field
func (c *Controller) Options(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}
	options, err := c.service.Options(ctx.Request.Context(), sess, e, ctx.Param("field"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, options, "options retrieved")
}

// Export 导出所有符合筛选条件的记录
// GET /api/v1/pages/:entity/export?format=xlsx|pdf
func (c *Controller) Export(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}
	file, err := c.service.Export(ctx.Request.Context(), sess, e,
		ParseState(e, ctx.Request.URL.Query()), ctx.DefaultQuery("format", "xlsx"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleFile(ctx, file.Name, file.ContentType, file.Body)
}

// Detail 获取单条记录的最新数据
// GET /api/v1/entities/:entity/:id
func (c *Controller) Detail(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}
	detail, err := c.service.Detail(ctx.Request.Context(), sess, e, ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, detail, "detail retrieved")
}

// Perform 执行操作
// POST /api/v1/entities/:entity/:id/actions/:kind
//
// 多步操作中途失败时返回错误码，data 中带回已执行的步骤（Partial=true）
func (c *Controller) Perform(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}

	// 无请求体（包括 chunked 空体）视为空 payload
	var payload action.Payload
	if err := ctx.ShouldBindJSON(&payload); err != nil && !stderrors.Is(err, io.EOF) {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	res, err := c.service.Perform(ctx.Request.Context(), sess, action.Request{
		Entity:   e,
		Kind:     action.Kind(ctx.Param("kind")),
		TargetID: ctx.Param("id"),
		Payload:  payload,
	})
	if err != nil {
		c.handleActionError(ctx, err, res)
		return
	}
	response.HandleSuccess(ctx, res, res.Message)
}

// Create 新建记录
// POST /api/v1/entities/:entity
func (c *Controller) Create(ctx *gin.Context) {
	sess, e, ok := c.scope(ctx)
	if !ok {
		return
	}

	var fields map[string]any
	if err := ctx.ShouldBindJSON(&fields); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	res, err := c.service.Create(ctx.Request.Context(), sess, e, fields)
	if err != nil {
		c.handleActionError(ctx, err, res)
		return
	}
	response.HandleCreated(ctx, res, res.Message)
}

// Summary 仪表盘概览
// GET /api/v1/summary
func (c *Controller) Summary(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	summary, err := c.service.Summary(ctx.Request.Context(), sess)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, summary, "summary retrieved")
}

// Audit 最近的操作记录
// GET /api/v1/audit?entity=&target_id=&limit=
func (c *Controller) Audit(ctx *gin.Context) {
	if _, ok := c.session(ctx); !ok {
		return
	}
	q := audit.Query{TargetID: ctx.Query("target_id")}
	if raw := ctx.Query("entity"); raw != "" {
		e, ok := entity.Parse(raw)
		if !ok {
			response.HandleAppError(ctx, shared.NewNotFoundError("entity", raw))
			return
		}
		q.Entity = e
	}
	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.HandleError(ctx, errors.BadRequest("invalid limit"), "invalid limit", http.StatusBadRequest)
			return
		}
		q.Limit = limit
	}

	entries, err := c.service.Audit(ctx.Request.Context(), q)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, entries, "audit entries retrieved")
}

// handleActionError 有步骤执行过时把结果一并返回
func (c *Controller) handleActionError(ctx *gin.Context, err error, res action.Result) {
	if len(res.Steps) == 0 {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleActionError(ctx, err, res)
}

func (c *Controller) session(ctx *gin.Context) (session.Session, bool) {
	sess, ok := ctxutil.Session(ctx)
	if !ok {
		response.HandleAppError(ctx, shared.NewUnauthorizedError("missing bearer token"))
		return session.Session{}, false
	}
	return sess, true
}

// scope 取出会话和路径中的实体
func (c *Controller) scope(ctx *gin.Context) (session.Session, entity.Entity, bool) {
	sess, ok := c.session(ctx)
	if !ok {
		return session.Session{}, "", false
	}
	raw := strings.TrimSpace(ctx.Param("entity"))
	e, ok := entity.Parse(raw)
	if !ok {
		response.HandleAppError(ctx, shared.NewNotFoundError("entity", raw))
		return session.Session{}, "", false
	}
	return sess, e, true
}
