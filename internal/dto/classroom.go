package dto

// ── 教室模块 DTO ──

// CreateClassroomRequest 创建教室请求
type CreateClassroomRequest struct {
	Name      string   `json:"name"      binding:"required,notblank,max=100"`
	Capacity  int      `json:"capacity"  binding:"required,min=1"`
	Location  string   `json:"location"  binding:"omitempty,max=200"`
	Equipment []string `json:"equipment" binding:"omitempty,dive,max=100"`
}

// UpdateClassroomRequest 更新教室请求（部分字段）
type UpdateClassroomRequest struct {
	Name      *string   `json:"name"      binding:"omitempty,notblank,max=100"`
	Capacity  *int      `json:"capacity"  binding:"omitempty,min=1"`
	Location  *string   `json:"location"  binding:"omitempty,max=200"`
	Equipment *[]string `json:"equipment" binding:"omitempty,dive,max=100"`
}

// ClassroomResponse 教室信息响应
type ClassroomResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Location  string   `json:"location"`
	Equipment []string `json:"equipment"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// ClassroomBriefResponse 教室简要信息
type ClassroomBriefResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}
