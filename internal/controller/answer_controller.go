package controller

import (
	"errors"
	"mastery_engine_backend/internal/service"
	"mastery_engine_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnswerController struct {
	Service *service.AnswerService
}

func NewAnswerController(svc *service.AnswerService) *AnswerController {
	return &AnswerController{Service: svc}
}

// @Summary 提交答案
// @Description 判题并做一次 BKT 掌握度更新；sessionId 可选，带上则同步会话进度
// @Tags 自适应测试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.SubmitAnswerRequest true "作答信息"
// @Success 200 {object} util.Response
// @Router /answers [post]
func (c *AnswerController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	feedback, err := c.Service.SubmitAnswer(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidOption):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrQuestionNotFound), errors.Is(err, util.ErrKnowledgeCompNotFound), errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionForbidden):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrSessionClosed), errors.Is(err, util.ErrConcurrencyConflict):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, feedback)
}
