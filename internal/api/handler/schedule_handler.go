package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-scheduler/internal/dto"
	"academic-scheduler/internal/service"
	pkgerrors "academic-scheduler/pkg/errors"
	"academic-scheduler/pkg/response"
)

// ScheduleHandler 排课模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListSchedules 排课列表
// GET /api/v1/schedules?course_id=&professor_id=&classroom_id=&section=&day=&year=&cycle=&semester=
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	schedules, err := h.scheduleSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedules)
}

// GetSchedule 排课详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.scheduleSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// CreateSchedule 创建排课
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, schedule)
}

// UpdateSchedule 部分更新排课
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// DeleteSchedule 删除排课，重复删除返回 deleted=false
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	deleted, err := h.scheduleSvc.Delete(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, dto.DeleteResponse{OK: true, Deleted: deleted})
}

// conflictData 409 响应体中的冲突信息
type conflictData struct {
	Dimension           string `json:"dimension"`
	ConflictingSchedule string `json:"conflicting_schedule_id"`
}

// handleScheduleError 按错误分类统一映射排课模块错误
// details 字段形如 conflict:professor、validation:cycle_parity
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	e, ok := pkgerrors.As(err)
	if !ok {
		response.InternalError(c)
		return
	}

	switch e.Kind {
	case pkgerrors.KindValidation:
		response.ErrorWithDetails(c, http.StatusBadRequest, 15201, e.Message, e.Detail())
	case pkgerrors.KindReferential:
		response.ErrorWithDetails(c, http.StatusBadRequest, 15301, e.Message, e.Detail())
	case pkgerrors.KindConflict:
		response.Conflict(c, 15401, e.Message, e.Detail(), conflictData{
			Dimension:           e.Reason,
			ConflictingSchedule: e.ConflictID,
		})
	case pkgerrors.KindNotFound:
		response.ErrorWithDetails(c, http.StatusNotFound, 15101, e.Message, e.Detail())
	default:
		if e.Reason == "stale" {
			response.Conflict(c, 15501, e.Message, e.Detail(), nil)
			return
		}
		response.ErrorWithDetails(c, http.StatusInternalServerError, 50000, "服务器内部错误", e.Detail())
	}
}
