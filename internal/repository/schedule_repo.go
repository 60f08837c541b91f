package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"academic-scheduler/internal/model"
	pkgerrors "academic-scheduler/pkg/errors"
)

// ScheduleFilter 排课列表过滤条件，零值字段不参与过滤
type ScheduleFilter struct {
	CourseID    string
	ProfessorID string
	ClassroomID string
	Section     string
	Day         *int
	Year        *int
	Cycle       *int
	Semester    *int
}

// ScheduleScopeQuery 冲突检测的查询范围
//
// ProfessorID / ClassroomID / Section 三者只应设置其一，对应一个冲突维度。
// 范围固定为同一学期 (Year, Cycle, Semester) 的同一天 Day。
type ScheduleScopeQuery struct {
	ProfessorID string
	ClassroomID string
	Section     string
	Day         int
	Year        int
	Cycle       int
	Semester    int
	// ExcludeID 更新时排除自身
	ExcludeID string
}

// ScheduleRepository 排课数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error)
	FindInScope(ctx context.Context, q ScheduleScopeQuery) ([]model.Schedule, error)
	Update(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id string, deletedBy string) (bool, error)
}

// ── Schedule Repository 实现 ──

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return mapPGError(r.db.WithContext(ctx).
		Omit("Course", "Professor", "Classroom").
		Create(schedule).Error)
}

func (r *scheduleRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Course").
		Preload("Professor").
		Preload("Classroom")
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.preloaded(ctx).
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, notFoundOnInvalidInput(err)
	}
	return &schedule, nil
}

func (r *scheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.preloaded(ctx)

	if filter.CourseID != "" {
		db = db.Where("course_id = ?", filter.CourseID)
	}
	if filter.ProfessorID != "" {
		db = db.Where("professor_id = ?", filter.ProfessorID)
	}
	if filter.ClassroomID != "" {
		db = db.Where("classroom_id = ?", filter.ClassroomID)
	}
	if s := strings.TrimSpace(filter.Section); s != "" {
		db = db.Where("section = ?", s)
	}
	if filter.Day != nil {
		db = db.Where("day = ?", *filter.Day)
	}
	if filter.Year != nil {
		db = db.Where("year = ?", *filter.Year)
	}
	if filter.Cycle != nil {
		db = db.Where("cycle = ?", *filter.Cycle)
	}
	if filter.Semester != nil {
		db = db.Where("semester = ?", *filter.Semester)
	}

	err := db.Order("day ASC, start_minutes ASC, created_at DESC").
		Find(&schedules).Error
	if isInvalidInput(err) {
		return []model.Schedule{}, nil
	}
	return schedules, err
}

func (r *scheduleRepo) FindInScope(ctx context.Context, q ScheduleScopeQuery) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx).
		Where("day = ? AND year = ? AND cycle = ? AND semester = ?", q.Day, q.Year, q.Cycle, q.Semester)

	switch {
	case q.ProfessorID != "":
		db = db.Where("professor_id = ?", q.ProfessorID)
	case q.ClassroomID != "":
		db = db.Where("classroom_id = ?", q.ClassroomID)
	default:
		db = db.Where("section = ?", strings.TrimSpace(q.Section))
	}
	if q.ExcludeID != "" {
		db = db.Where("schedule_id <> ?", q.ExcludeID)
	}

	err := db.Order("start_minutes ASC, created_at ASC").Find(&schedules).Error
	if isInvalidInput(err) {
		return []model.Schedule{}, nil
	}
	return schedules, err
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *model.Schedule) error {
	oldVersion := schedule.Version
	result := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ? AND version = ?", schedule.ScheduleID, oldVersion).
		Updates(map[string]interface{}{
			"course_id":     schedule.CourseID,
			"professor_id":  schedule.ProfessorID,
			"classroom_id":  schedule.ClassroomID,
			"day":           schedule.Day,
			"start_minutes": schedule.StartMinutes,
			"end_minutes":   schedule.EndMinutes,
			"year":          schedule.Year,
			"cycle":         schedule.Cycle,
			"semester":      schedule.Semester,
			"section":       schedule.Section,
			"updated_by":    schedule.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return mapPGError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version = oldVersion + 1
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string, deletedBy string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ?", id).
		Updates(softDeleteUpdates(deletedBy))
	if result.Error != nil {
		if isInvalidInput(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
