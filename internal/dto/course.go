package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code        string `json:"code"        binding:"required,notblank,max=30"`
	Name        string `json:"name"        binding:"required,notblank,max=150"`
	Credits     int    `json:"credits"     binding:"required,min=1,max=10"`
	Semester    *int   `json:"semester"    binding:"omitempty,min=1,max=10"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateCourseRequest 更新课程请求（部分字段）
type UpdateCourseRequest struct {
	Code        *string `json:"code"        binding:"omitempty,notblank,max=30"`
	Name        *string `json:"name"        binding:"omitempty,notblank,max=150"`
	Credits     *int    `json:"credits"     binding:"omitempty,min=1,max=10"`
	Semester    *int    `json:"semester"    binding:"omitempty,min=1,max=10"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	Semester *int `form:"semester" binding:"omitempty,min=1,max=10"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	Semester    *int   `json:"semester"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CourseBriefResponse 课程简要信息
type CourseBriefResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}
