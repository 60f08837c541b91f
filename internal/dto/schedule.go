package dto

// ── 排课模块 DTO ──

// CreateScheduleRequest 创建排课请求
//
// 数值范围与奇偶规则由业务层统一校验，以便返回具体的违规规则名。
type CreateScheduleRequest struct {
	CourseID     string `json:"course_id"     binding:"required,notblank"`
	ProfessorID  string `json:"professor_id"  binding:"required,notblank"`
	ClassroomID  string `json:"classroom_id"  binding:"required,notblank"`
	Day          *int   `json:"day"           binding:"required"`
	StartMinutes *int   `json:"start_minutes" binding:"required"`
	EndMinutes   *int   `json:"end_minutes"   binding:"required"`
	Year         *int   `json:"year"          binding:"required"`
	Cycle        *int   `json:"cycle"         binding:"required"`
	Semester     *int   `json:"semester"      binding:"required"`
	Section      string `json:"section"`
}

// UpdateScheduleRequest 更新排课请求；未提供的字段沿用原值
type UpdateScheduleRequest struct {
	CourseID     *string `json:"course_id"     binding:"omitempty,notblank"`
	ProfessorID  *string `json:"professor_id"  binding:"omitempty,notblank"`
	ClassroomID  *string `json:"classroom_id"  binding:"omitempty,notblank"`
	Day          *int    `json:"day"`
	StartMinutes *int    `json:"start_minutes"`
	EndMinutes   *int    `json:"end_minutes"`
	Year         *int    `json:"year"`
	Cycle        *int    `json:"cycle"`
	Semester     *int    `json:"semester"`
	Section      *string `json:"section"`
}

// ScheduleListRequest 排课列表过滤参数
type ScheduleListRequest struct {
	CourseID    string `form:"course_id"`
	ProfessorID string `form:"professor_id"`
	ClassroomID string `form:"classroom_id"`
	Section     string `form:"section"`
	Day         *int   `form:"day"      binding:"omitempty,weekday"`
	Year        *int   `form:"year"     binding:"omitempty,min=2000,max=2100"`
	Cycle       *int   `form:"cycle"    binding:"omitempty,oneof=1 2"`
	Semester    *int   `form:"semester" binding:"omitempty,min=1,max=10"`
}

// ExportScheduleRequest 导出某学期课表
type ExportScheduleRequest struct {
	Year     int `form:"year"     binding:"required,min=2000,max=2100"`
	Cycle    int `form:"cycle"    binding:"required,oneof=1 2"`
	Semester int `form:"semester" binding:"required,min=1,max=10"`
}

// ProfessorBriefResponse 教师简要信息
type ProfessorBriefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ScheduleResponse 排课详情（含课程/教师/教室）
//
// 引用的实体被删除后对应字段为 null，ID 仍保留。
type ScheduleResponse struct {
	ID           string                  `json:"id"`
	CourseID     string                  `json:"course_id"`
	ProfessorID  string                  `json:"professor_id"`
	ClassroomID  string                  `json:"classroom_id"`
	Course       *CourseBriefResponse    `json:"course"`
	Professor    *ProfessorBriefResponse `json:"professor"`
	Classroom    *ClassroomBriefResponse `json:"classroom"`
	Day          int                     `json:"day"`
	StartMinutes int                     `json:"start_minutes"`
	EndMinutes   int                     `json:"end_minutes"`
	StartTime    string                  `json:"start_time"` // HH:MM
	EndTime      string                  `json:"end_time"`
	Year         int                     `json:"year"`
	Cycle        int                     `json:"cycle"`
	Semester     int                     `json:"semester"`
	Section      string                  `json:"section"`
	Version      int                     `json:"version"`
	CreatedAt    string                  `json:"created_at"`
	UpdatedAt    string                  `json:"updated_at"`
}
