package controller

import (
	"errors"
	"mastery_engine_backend/internal/service"
	"mastery_engine_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MasteryController struct {
	Service *service.PassChanceService
}

func NewMasteryController(svc *service.PassChanceService) *MasteryController {
	return &MasteryController{Service: svc}
}

// @Summary 获取课程通过率估计
// @Description 基于各知识组件掌握度的泊松二项聚合；课程内没有任何作答时返回 determined=false
// @Tags 掌握度
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/pass-chance [get]
func (c *MasteryController) GetPassChance(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.Compute(ctx.Request.Context(), user.UserID, ctx.Param("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取课程掌握度快照
// @Description 课程内各知识组件的当前掌握状态，只读
// @Tags 掌握度
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/mastery [get]
func (c *MasteryController) GetMasteryOverview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Service.MasteryOverview(ctx.Request.Context(), user.UserID, ctx.Param("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, items)
}
