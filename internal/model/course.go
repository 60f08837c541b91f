package model

// Course 课程表，对应 courses
type Course struct {
	CourseID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code        string `gorm:"type:varchar(30);not null"                      json:"code"` // 在未删除记录中唯一
	Name        string `gorm:"type:varchar(150);not null"                     json:"name"`
	Credits     int    `gorm:"type:smallint;not null"                         json:"credits"`  // 1-10
	Semester    *int   `gorm:"type:smallint"                                  json:"semester"` // 1-10，可为空
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	SoftDeleteModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
