package handler

import "academic-scheduler/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Course    *CourseHandler
	Classroom *ClassroomHandler
	Schedule  *ScheduleHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		User:      NewUserHandler(svc.User),
		Course:    NewCourseHandler(svc.Course),
		Classroom: NewClassroomHandler(svc.Classroom),
		Schedule:  NewScheduleHandler(svc.Schedule),
		Export:    NewExportHandler(svc.Export),
	}
}
