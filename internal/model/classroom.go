package model

import "github.com/lib/pq"

// Classroom 教室表，对应 classrooms
type Classroom struct {
	ClassroomID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	Name        string         `gorm:"type:varchar(100);not null"                     json:"name"`
	Capacity    int            `gorm:"not null"                                       json:"capacity"` // >= 1
	Location    string         `gorm:"type:varchar(200);not null;default:''"          json:"location"`
	Equipment   pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"equipment"` // 无序，允许重复
	SoftDeleteModel
}

// TableName 指定表名
func (Classroom) TableName() string { return "classrooms" }
