package model

// 用户角色
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleProfessor   = "professor"
)

// User 用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"` // 小写存储，唯一
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'professor'"  json:"role"` // admin | coordinator | professor
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联：教师可讲授的课程
	CoursesCanTeach []Course `gorm:"many2many:professor_courses;foreignKey:UserID;joinForeignKey:UserID;references:CourseID;joinReferences:CourseID" json:"courses_can_teach,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsProfessor 是否可作为排课中的授课教师
func (u *User) IsProfessor() bool { return u.Role == RoleProfessor }
