package service

import (
	"go.uber.org/zap"

	"academic-scheduler/config"
	"academic-scheduler/internal/repository"
	"academic-scheduler/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Course    CourseService
	Classroom ClassroomService
	Schedule  ScheduleService
	Export    ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	locker ScopeLocker,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:      NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:      NewUserService(repo, cfg.Auth.BcryptCost, logger),
		Course:    NewCourseService(repo, logger),
		Classroom: NewClassroomService(repo, logger),
		Schedule:  NewScheduleService(repo, locker, logger),
		Export:    NewExportService(repo, logger),
	}
}
