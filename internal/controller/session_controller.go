package controller

import (
	"errors"
	"mastery_engine_backend/internal/service"
	"mastery_engine_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Service *service.SessionService
}

func NewSessionController(svc *service.SessionService) *SessionController {
	return &SessionController{Service: svc}
}

type CreateSessionRequest struct {
	Topic string `json:"topic"`
}

// @Summary 开始自适应测试会话
// @Description 按当前掌握度选出最弱的知识组件出题；范围内全部已掌握时返回 allMastered=true
// @Tags 自适应测试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Param body body CreateSessionRequest false "可选的主题范围"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := ctx.Param("courseId")

	var req CreateSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	resp, err := c.Service.CreateSession(ctx.Request.Context(), user.UserID, courseID, req.Topic)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNoQuestionsAvailable):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resp)
}

// @Summary 恢复测试会话
// @Description 返回创建时固定的题目顺序和当前进度，刷新页面不会重新组卷
// @Tags 自适应测试
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id} [get]
func (c *SessionController) ResumeSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	resp, err := c.Service.ResumeSession(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionForbidden):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrSessionNotResumable):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resp)
}

// @Summary 结束测试会话
// @Description 显式完成会话并记录通过率快照，重复调用幂等
// @Tags 自适应测试
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/complete [post]
func (c *SessionController) CompleteSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	resp, err := c.Service.CompleteSession(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionForbidden):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrConcurrencyConflict):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resp)
}
