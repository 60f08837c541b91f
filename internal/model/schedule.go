package model

// Schedule 排课表，对应 schedules
//
// 一条记录把课程、教师、教室绑定到某学期 (year, cycle, semester) 的某天某时段。
// 时间以当天零点起的分钟数表示，区间为左闭右开 [StartMinutes, EndMinutes)。
type Schedule struct {
	ScheduleID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	CourseID     string `gorm:"type:uuid;not null"                             json:"course_id"`
	ProfessorID  string `gorm:"type:uuid;not null"                             json:"professor_id"`
	ClassroomID  string `gorm:"type:uuid;not null"                             json:"classroom_id"`
	Day          int    `gorm:"type:smallint;not null"                         json:"day"` // 0=周日 … 6=周六
	StartMinutes int    `gorm:"type:smallint;not null"                         json:"start_minutes"`
	EndMinutes   int    `gorm:"type:smallint;not null"                         json:"end_minutes"`
	Year         int    `gorm:"type:smallint;not null"                         json:"year"`     // 2000-2100
	Cycle        int    `gorm:"type:smallint;not null"                         json:"cycle"`    // 1 | 2
	Semester     int    `gorm:"type:smallint;not null"                         json:"semester"` // 1-10，奇偶与 cycle 对应
	Section      string `gorm:"type:varchar(50);not null"                      json:"section"`
	VersionedModel

	// 关联
	Course    *Course    `gorm:"foreignKey:CourseID;references:CourseID"       json:"course,omitempty"`
	Professor *User      `gorm:"foreignKey:ProfessorID;references:UserID"      json:"professor,omitempty"`
	Classroom *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"classroom,omitempty"`
}

// TableName 指定表名
func (Schedule) TableName() string { return "schedules" }

// Period 学年周期学期三元组
type Period struct {
	Year     int
	Cycle    int
	Semester int
}

// Period 返回排课所属的学期
func (s *Schedule) Period() Period {
	return Period{Year: s.Year, Cycle: s.Cycle, Semester: s.Semester}
}
