package handler

import (
	"errors"
	"net/url"

	"github.com/gin-gonic/gin"

	"shift-roster/internal/dto"
	"shift-roster/internal/service"
	pkgerrors "shift-roster/pkg/errors"
	"shift-roster/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedule 导出月度排班表
// GET /api/v1/export/schedule?year=2026&month=2
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequestWithDetails(c, 13001, "参数校验失败", "query")
		return
	}

	buf, filename, err := h.exportSvc.ExportMonth(c.Request.Context(), caller, q.Year, q.Month)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	response.File(c, url.QueryEscape(filename), xlsxContentType, buf.Bytes())
}

// ExportCalendar 导出员工月度排班日历
// GET /api/v1/export/schedule.ics?year=2026&month=2&employee_id=3
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequestWithDetails(c, 13001, "参数校验失败", "query")
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), caller, q.Year, q.Month, q.EmployeeID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.File(c, url.QueryEscape(filename), icsContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.BadRequestWithDetails(c, 13001, ve.Reason, ve.Field)
		return
	}

	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权限执行该操作")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	case errors.Is(err, service.ErrExportNoAssignments):
		response.NotFound(c, 16101, "该月份暂无排班记录")
	default:
		response.InternalError(c)
	}
}
