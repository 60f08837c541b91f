package repository

import (
	"context"

	"gorm.io/gorm"

	"academic-scheduler/internal/model"
)

// ClassroomRepository 教室数据访问接口
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *model.Classroom) error
	GetByID(ctx context.Context, id string) (*model.Classroom, error)
	List(ctx context.Context) ([]model.Classroom, error)
	Update(ctx context.Context, classroom *model.Classroom) error
	Delete(ctx context.Context, id string, deletedBy string) (bool, error)
}

type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) Create(ctx context.Context, classroom *model.Classroom) error {
	return mapPGError(r.db.WithContext(ctx).Create(classroom).Error)
}

func (r *classroomRepo) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", id).
		First(&classroom).Error
	if err != nil {
		return nil, notFoundOnInvalidInput(err)
	}
	return &classroom, nil
}

func (r *classroomRepo) List(ctx context.Context) ([]model.Classroom, error) {
	var classrooms []model.Classroom
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepo) Update(ctx context.Context, classroom *model.Classroom) error {
	result := r.db.WithContext(ctx).
		Model(&model.Classroom{}).
		Where("classroom_id = ?", classroom.ClassroomID).
		Updates(map[string]interface{}{
			"name":       classroom.Name,
			"capacity":   classroom.Capacity,
			"location":   classroom.Location,
			"equipment":  classroom.Equipment,
			"updated_by": classroom.UpdatedBy,
		})
	if result.Error != nil {
		return mapPGError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *classroomRepo) Delete(ctx context.Context, id string, deletedBy string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Classroom{}).
		Where("classroom_id = ?", id).
		Updates(softDeleteUpdates(deletedBy))
	if result.Error != nil {
		if isInvalidInput(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
