package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-scheduler/internal/dto"
	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound   = pkgerrors.New(pkgerrors.KindNotFound, "course", "课程不存在")
	ErrCourseCodeExists = pkgerrors.New(pkgerrors.KindValidation, "duplicate_code", "课程代码已存在")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string, callerID string) (bool, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	code := strings.TrimSpace(req.Code)
	if err := s.ensureCodeFree(ctx, code, ""); err != nil {
		return nil, err
	}

	course := &model.Course{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Credits:     req.Credits,
		Semester:    req.Semester,
		Description: req.Description,
	}
	if callerID != "" {
		course.CreatedBy = &callerID
		course.UpdatedBy = &callerID
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx, req.Semester)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code != course.Code {
			if err := s.ensureCodeFree(ctx, code, id); err != nil {
				return nil, err
			}
		}
		course.Code = code
	}
	if req.Name != nil {
		course.Name = strings.TrimSpace(*req.Name)
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.Semester != nil {
		course.Semester = req.Semester
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if callerID != "" {
		course.UpdatedBy = &callerID
	}

	if err := s.repo.Course.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrDuplicateKey):
			return nil, ErrCourseCodeExists
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrCourseNotFound
		}
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除课程；引用它的排课保留，其课程信息显示为空
func (s *courseService) Delete(ctx context.Context, id string, callerID string) (bool, error) {
	deleted, err := s.repo.Course.Delete(ctx, id, callerID)
	if err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return false, err
	}
	return deleted, nil
}

// ── 内部辅助方法 ──

// ensureCodeFree 检查课程代码未被其他课程占用
func (s *courseService) ensureCodeFree(ctx context.Context, code, selfID string) error {
	existing, err := s.repo.Course.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询课程代码失败", zap.String("code", code), zap.Error(err))
		return err
	}
	if existing.CourseID != selfID {
		return ErrCourseCodeExists
	}
	return nil
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	return &dto.CourseResponse{
		ID:          c.CourseID,
		Code:        c.Code,
		Name:        c.Name,
		Credits:     c.Credits,
		Semester:    c.Semester,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func toCourseBrief(c *model.Course) *dto.CourseBriefResponse {
	return &dto.CourseBriefResponse{
		ID:      c.CourseID,
		Code:    c.Code,
		Name:    c.Name,
		Credits: c.Credits,
	}
}
