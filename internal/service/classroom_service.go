package service

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-scheduler/internal/dto"
	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
)

// ── 教室模块业务错误 ──

var (
	ErrClassroomNotFound = pkgerrors.New(pkgerrors.KindNotFound, "classroom", "教室不存在")
)

// ClassroomService 教室业务接口
type ClassroomService interface {
	Create(ctx context.Context, req *dto.CreateClassroomRequest, callerID string) (*dto.ClassroomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClassroomResponse, error)
	List(ctx context.Context) ([]dto.ClassroomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateClassroomRequest, callerID string) (*dto.ClassroomResponse, error)
	Delete(ctx context.Context, id string, callerID string) (bool, error)
}

type classroomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClassroomService 创建 ClassroomService 实例
func NewClassroomService(repo *repository.Repository, logger *zap.Logger) ClassroomService {
	return &classroomService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *classroomService) Create(ctx context.Context, req *dto.CreateClassroomRequest, callerID string) (*dto.ClassroomResponse, error) {
	classroom := &model.Classroom{
		Name:      strings.TrimSpace(req.Name),
		Capacity:  req.Capacity,
		Location:  strings.TrimSpace(req.Location),
		Equipment: normalizeEquipment(req.Equipment),
	}
	if callerID != "" {
		classroom.CreatedBy = &callerID
		classroom.UpdatedBy = &callerID
	}

	if err := s.repo.Classroom.Create(ctx, classroom); err != nil {
		s.logger.Error("创建教室失败", zap.Error(err))
		return nil, err
	}

	return toClassroomResponse(classroom), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *classroomService) GetByID(ctx context.Context, id string) (*dto.ClassroomResponse, error) {
	classroom, err := s.repo.Classroom.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClassroomResponse(classroom), nil
}

// ────────────────────── List ──────────────────────

func (s *classroomService) List(ctx context.Context) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.repo.Classroom.List(ctx)
	if err != nil {
		s.logger.Error("列出教室失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClassroomResponse, 0, len(classrooms))
	for i := range classrooms {
		result = append(result, *toClassroomResponse(&classrooms[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *classroomService) Update(ctx context.Context, id string, req *dto.UpdateClassroomRequest, callerID string) (*dto.ClassroomResponse, error) {
	classroom, err := s.repo.Classroom.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		classroom.Name = strings.TrimSpace(*req.Name)
	}
	if req.Capacity != nil {
		classroom.Capacity = *req.Capacity
	}
	if req.Location != nil {
		classroom.Location = strings.TrimSpace(*req.Location)
	}
	if req.Equipment != nil {
		classroom.Equipment = normalizeEquipment(*req.Equipment)
	}
	if callerID != "" {
		classroom.UpdatedBy = &callerID
	}

	if err := s.repo.Classroom.Update(ctx, classroom); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("更新教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toClassroomResponse(classroom), nil
}

// ────────────────────── Delete ──────────────────────

func (s *classroomService) Delete(ctx context.Context, id string, callerID string) (bool, error) {
	deleted, err := s.repo.Classroom.Delete(ctx, id, callerID)
	if err != nil {
		s.logger.Error("删除教室失败", zap.String("id", id), zap.Error(err))
		return false, err
	}
	return deleted, nil
}

// ── 内部辅助方法 ──

// normalizeEquipment 去除空白项，保留顺序与重复
func normalizeEquipment(items []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func toClassroomResponse(c *model.Classroom) *dto.ClassroomResponse {
	equipment := []string(c.Equipment)
	if equipment == nil {
		equipment = []string{}
	}
	return &dto.ClassroomResponse{
		ID:        c.ClassroomID,
		Name:      c.Name,
		Capacity:  c.Capacity,
		Location:  c.Location,
		Equipment: equipment,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
