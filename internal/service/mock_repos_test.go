package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
)

// 测试中的固定时钟起点，保证 created_at 单调递增
var mockEpoch = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*model.Course
	seq     int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.courses {
		if c.Code == course.Code {
			return fmt.Errorf("%w: uq_courses_code", pkgerrors.ErrDuplicateKey)
		}
	}
	m.seq++
	if course.CourseID == "" {
		course.CourseID = fmt.Sprintf("course-%d", m.seq)
	}
	course.CreatedAt = mockEpoch.Add(time.Duration(m.seq) * time.Second)
	course.UpdatedAt = course.CreatedAt
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByIDs(_ context.Context, ids []string) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []model.Course{}
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.courses {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context, semester *int) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []model.Course{}
	for _, c := range m.courses {
		if semester != nil && (c.Semester == nil || *c.Semester != *semester) {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[course.CourseID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *course
	m.courses[course.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return false, nil
	}
	delete(m.courses, id)
	return true, nil
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	mu         sync.Mutex
	classrooms map[string]*model.Classroom
	seq        int
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{classrooms: make(map[string]*model.Classroom)}
}

func (m *mockClassroomRepo) Create(_ context.Context, classroom *model.Classroom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if classroom.ClassroomID == "" {
		classroom.ClassroomID = fmt.Sprintf("room-%d", m.seq)
	}
	classroom.CreatedAt = mockEpoch.Add(time.Duration(m.seq) * time.Second)
	classroom.UpdatedAt = classroom.CreatedAt
	m.classrooms[classroom.ClassroomID] = classroom
	return nil
}

func (m *mockClassroomRepo) GetByID(_ context.Context, id string) (*model.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.classrooms[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) List(_ context.Context) ([]model.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []model.Classroom{}
	for _, c := range m.classrooms {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockClassroomRepo) Update(_ context.Context, classroom *model.Classroom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classrooms[classroom.ClassroomID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *classroom
	m.classrooms[classroom.ClassroomID] = &cp
	return nil
}

func (m *mockClassroomRepo) Delete(_ context.Context, id string, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classrooms[id]; !ok {
		return false, nil
	}
	delete(m.classrooms, id)
	return true, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	seq   int
	// courses 用于 ReplaceCourses 时回填课程详情
	courses *mockCourseRepo
}

func newMockUserRepo(courses *mockCourseRepo) *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), courses: courses}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: uq_users_email", pkgerrors.ErrDuplicateKey)
		}
	}
	m.seq++
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	user.CreatedAt = mockEpoch.Add(time.Duration(m.seq) * time.Second)
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, role string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []model.User{}
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	cp.CoursesCanTeach = stored.CoursesCanTeach
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) ReplaceCourses(ctx context.Context, userID string, courseIDs []string) error {
	courses, _ := m.courses.GetByIDs(ctx, courseIDs)
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.CoursesCanTeach = courses
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*model.Schedule
	seq       int

	// 预加载关联
	courses    *mockCourseRepo
	users      *mockUserRepo
	classrooms *mockClassroomRepo

	// 注入故障
	findErr   error
	createErr error
	// findCalls 记录 FindInScope 调用次数
	findCalls int
}

func newMockScheduleRepo(courses *mockCourseRepo, users *mockUserRepo, classrooms *mockClassroomRepo) *mockScheduleRepo {
	return &mockScheduleRepo{
		schedules:  make(map[string]*model.Schedule),
		courses:    courses,
		users:      users,
		classrooms: classrooms,
	}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	if schedule.ScheduleID == "" {
		schedule.ScheduleID = fmt.Sprintf("sch-%d", m.seq)
	}
	schedule.Version = 1
	schedule.CreatedAt = mockEpoch.Add(time.Duration(m.seq) * time.Second)
	schedule.UpdatedAt = schedule.CreatedAt
	cp := *schedule
	cp.Course, cp.Professor, cp.Classroom = nil, nil, nil
	m.schedules[schedule.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	m.mu.Lock()
	s, ok := m.schedules[id]
	var cp model.Schedule
	if ok {
		cp = *s
	}
	m.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.preload(ctx, &cp)
	return &cp, nil
}

func (m *mockScheduleRepo) preload(ctx context.Context, s *model.Schedule) {
	s.Course, s.Professor, s.Classroom = nil, nil, nil
	if c, err := m.courses.GetByID(ctx, s.CourseID); err == nil {
		s.Course = c
	}
	if u, err := m.users.GetByID(ctx, s.ProfessorID); err == nil {
		s.Professor = u
	}
	if r, err := m.classrooms.GetByID(ctx, s.ClassroomID); err == nil {
		s.Classroom = r
	}
}

func (m *mockScheduleRepo) List(ctx context.Context, f repository.ScheduleFilter) ([]model.Schedule, error) {
	m.mu.Lock()
	result := []model.Schedule{}
	for _, s := range m.schedules {
		switch {
		case f.CourseID != "" && s.CourseID != f.CourseID,
			f.ProfessorID != "" && s.ProfessorID != f.ProfessorID,
			f.ClassroomID != "" && s.ClassroomID != f.ClassroomID,
			strings.TrimSpace(f.Section) != "" && s.Section != strings.TrimSpace(f.Section),
			f.Day != nil && s.Day != *f.Day,
			f.Year != nil && s.Year != *f.Year,
			f.Cycle != nil && s.Cycle != *f.Cycle,
			f.Semester != nil && s.Semester != *f.Semester:
			continue
		}
		result = append(result, *s)
	}
	m.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.StartMinutes != b.StartMinutes {
			return a.StartMinutes < b.StartMinutes
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	for i := range result {
		m.preload(ctx, &result[i])
	}
	return result, nil
}

func (m *mockScheduleRepo) FindInScope(_ context.Context, q repository.ScheduleScopeQuery) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}
	result := []model.Schedule{}
	for _, s := range m.schedules {
		if s.Day != q.Day || s.Year != q.Year || s.Cycle != q.Cycle || s.Semester != q.Semester {
			continue
		}
		if q.ExcludeID != "" && s.ScheduleID == q.ExcludeID {
			continue
		}
		switch {
		case q.ProfessorID != "":
			if s.ProfessorID != q.ProfessorID {
				continue
			}
		case q.ClassroomID != "":
			if s.ClassroomID != q.ClassroomID {
				continue
			}
		default:
			if s.Section != strings.TrimSpace(q.Section) {
				continue
			}
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartMinutes < result[j].StartMinutes })
	return result, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.schedules[schedule.ScheduleID]
	if !ok || stored.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version++
	cp := *schedule
	cp.Course, cp.Professor, cp.Classroom = nil, nil, nil
	m.schedules[schedule.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return false, nil
	}
	delete(m.schedules, id)
	return true, nil
}

func (m *mockScheduleRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}

// ── 测试仓储聚合 ──

type mockRepos struct {
	courses    *mockCourseRepo
	classrooms *mockClassroomRepo
	users      *mockUserRepo
	schedules  *mockScheduleRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	courses := newMockCourseRepo()
	classrooms := newMockClassroomRepo()
	users := newMockUserRepo(courses)
	schedules := newMockScheduleRepo(courses, users, classrooms)
	repo := &repository.Repository{
		User:      users,
		Course:    courses,
		Classroom: classrooms,
		Schedule:  schedules,
	}
	return repo, &mockRepos{courses: courses, classrooms: classrooms, users: users, schedules: schedules}
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		return nil
	}
	m.revoked[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}
