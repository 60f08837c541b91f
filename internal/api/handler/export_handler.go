package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"academic-scheduler/internal/dto"
	"academic-scheduler/internal/model"
	"academic-scheduler/internal/service"
	"academic-scheduler/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedules 导出某学期课表
// GET /api/v1/export/schedules?year=&cycle=&semester=
func (h *ExportHandler) ExportSchedules(c *gin.Context) {
	var req dto.ExportScheduleRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 16001, "year、cycle、semester 参数无效")
		return
	}

	period := model.Period{Year: req.Year, Cycle: req.Cycle, Semester: req.Semester}
	buf, filename, err := h.exportSvc.ExportSchedules(c.Request.Context(), period)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.PathEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSchedules):
		response.NotFound(c, 16101, "该学期暂无排课")
	default:
		response.InternalError(c)
	}
}
