package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"academic-scheduler/internal/dto"
	"academic-scheduler/internal/model"
	"academic-scheduler/internal/repository"
	pkgerrors "academic-scheduler/pkg/errors"
)

// ── 测试辅助 ──

// 固定的种子数据 ID
const (
	testCourse1     = "course-c1"
	testCourse2     = "course-c2"
	testProfessor1  = "prof-p1"
	testProfessor2  = "prof-p2"
	testProfessor3  = "prof-p3"
	testCoordinator = "coord-1"
	testRoom1       = "room-r1"
	testRoom2       = "room-r2"
)

// newSeededRepos 两门课程、三名教师、一名协调员、两间教室
func newSeededRepos() (*repository.Repository, *mockRepos) {
	repo, mocks := newMockRepos()
	ctx := context.Background()

	sem1 := 1
	_ = mocks.courses.Create(ctx, &model.Course{CourseID: testCourse1, Code: "MAT101", Name: "Cálculo I", Credits: 4, Semester: &sem1})
	_ = mocks.courses.Create(ctx, &model.Course{CourseID: testCourse2, Code: "PRG101", Name: "Programación I", Credits: 5, Semester: &sem1})

	for id, name := range map[string]string{testProfessor1: "Ana", testProfessor2: "Luis", testProfessor3: "Marta"} {
		_ = mocks.users.Create(ctx, &model.User{UserID: id, Name: name, Email: id + "@umg.edu", Role: model.RoleProfessor, IsActive: true})
	}
	_ = mocks.users.Create(ctx, &model.User{UserID: testCoordinator, Name: "Coord", Email: "coord@umg.edu", Role: model.RoleCoordinator, IsActive: true})

	_ = mocks.classrooms.Create(ctx, &model.Classroom{ClassroomID: testRoom1, Name: "A-101", Capacity: 40})
	_ = mocks.classrooms.Create(ctx, &model.Classroom{ClassroomID: testRoom2, Name: "B-202", Capacity: 30})

	return repo, mocks
}

func setupTestScheduleService(locker ScopeLocker) (ScheduleService, *mockRepos) {
	repo, mocks := newSeededRepos()
	return NewScheduleService(repo, locker, zap.NewNop()), mocks
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// newCreateReq 默认：C1 / P1 / R1，周一 08:00-09:30，2024 周期1 第1学期，班级 A
func newCreateReq(mutate ...func(r *dto.CreateScheduleRequest)) *dto.CreateScheduleRequest {
	req := &dto.CreateScheduleRequest{
		CourseID:     testCourse1,
		ProfessorID:  testProfessor1,
		ClassroomID:  testRoom1,
		Day:          intPtr(1),
		StartMinutes: intPtr(480),
		EndMinutes:   intPtr(570),
		Year:         intPtr(2024),
		Cycle:        intPtr(1),
		Semester:     intPtr(1),
		Section:      "A",
	}
	for _, m := range mutate {
		m(req)
	}
	return req
}

func mustCreate(t *testing.T, svc ScheduleService, req *dto.CreateScheduleRequest) *dto.ScheduleResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), req, testCoordinator)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	return resp
}

// ── 示例场景 ──

func TestScheduleService_Create_Success(t *testing.T) {
	svc, mocks := setupTestScheduleService(nil)

	resp := mustCreate(t, svc, newCreateReq())

	if resp.ID == "" {
		t.Fatal("期望返回排课 ID")
	}
	if mocks.schedules.count() != 1 {
		t.Errorf("期望持久化 1 条记录，实际=%d", mocks.schedules.count())
	}
	if resp.Course == nil || resp.Course.Code != "MAT101" {
		t.Errorf("期望关联课程 MAT101，实际=%+v", resp.Course)
	}
	if resp.Professor == nil || resp.Professor.Name != "Ana" {
		t.Errorf("期望关联教师 Ana，实际=%+v", resp.Professor)
	}
	if resp.Classroom == nil || resp.Classroom.Name != "A-101" {
		t.Errorf("期望关联教室 A-101，实际=%+v", resp.Classroom)
	}
	if resp.StartTime != "08:00" || resp.EndTime != "09:30" {
		t.Errorf("期望 08:00-09:30，实际=%s-%s", resp.StartTime, resp.EndTime)
	}
	if resp.Version != 1 {
		t.Errorf("期望 version=1，实际=%d", resp.Version)
	}
}

func TestScheduleService_Create_ProfessorBusy(t *testing.T) {
	svc, mocks := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ClassroomID = testRoom2
		r.Section = "B"
		r.StartMinutes, r.EndMinutes = intPtr(540), intPtr(600)
	}), testCoordinator)

	if !errors.Is(err, ErrProfessorBusy) {
		t.Fatalf("期望 ErrProfessorBusy，实际: %v", err)
	}
	e, ok := pkgerrors.As(err)
	if !ok || e.ConflictID != a.ID {
		t.Errorf("期望冲突记录 ID=%s，实际=%+v", a.ID, e)
	}
	if mocks.schedules.count() != 1 {
		t.Errorf("冲突时不应持久化，实际记录数=%d", mocks.schedules.count())
	}
}

func TestScheduleService_Create_SameRoomAfterward(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	mustCreate(t, svc, newCreateReq())

	resp, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testProfessor2
		r.Section = "B"
		r.StartMinutes, r.EndMinutes = intPtr(600), intPtr(660)
	}), testCoordinator)
	if err != nil {
		t.Fatalf("同一教室不重叠时段应成功: %v", err)
	}
	if resp.ClassroomID != testRoom1 {
		t.Errorf("期望教室=%s，实际=%s", testRoom1, resp.ClassroomID)
	}
}

func TestScheduleService_Create_CycleParityMismatch(t *testing.T) {
	svc, mocks := setupTestScheduleService(nil)

	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.Cycle = intPtr(2)
	}), testCoordinator)

	if !errors.Is(err, ErrCycleParity) {
		t.Fatalf("期望 ErrCycleParity，实际: %v", err)
	}
	if pkgerrors.KindOf(err) != pkgerrors.KindValidation {
		t.Errorf("期望 validation 分类，实际=%s", pkgerrors.KindOf(err))
	}
	if mocks.schedules.findCalls != 0 {
		t.Errorf("结构校验失败时不应执行冲突查询，实际调用=%d", mocks.schedules.findCalls)
	}
}

func TestScheduleService_Update_ShiftOwnTime(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	resp, err := svc.Update(context.Background(), a.ID, &dto.UpdateScheduleRequest{
		StartMinutes: intPtr(490),
		EndMinutes:   intPtr(580),
	}, testCoordinator)
	if err != nil {
		t.Fatalf("平移自身时段应成功: %v", err)
	}
	if resp.StartMinutes != 490 || resp.EndMinutes != 580 {
		t.Errorf("期望 490-580，实际=%d-%d", resp.StartMinutes, resp.EndMinutes)
	}
	if resp.Version != 2 {
		t.Errorf("期望 version=2，实际=%d", resp.Version)
	}
}

func TestScheduleService_Create_UnknownProfessor(t *testing.T) {
	svc, mocks := setupTestScheduleService(nil)

	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = "prof-missing"
	}), testCoordinator)

	if !errors.Is(err, ErrProfessorRefNotFound) {
		t.Fatalf("期望 ErrProfessorRefNotFound，实际: %v", err)
	}
	if pkgerrors.KindOf(err) != pkgerrors.KindReferential {
		t.Errorf("期望 referential 分类，实际=%s", pkgerrors.KindOf(err))
	}
	if mocks.schedules.count() != 0 {
		t.Error("引用无效时不应持久化")
	}
	if mocks.schedules.findCalls != 0 {
		t.Error("引用校验应先于冲突检测")
	}
}

// ── 引用校验 ──

func TestScheduleService_Create_RefErrorOrder(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)

	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.CourseID = "course-missing"
		r.ClassroomID = "room-missing"
	}), testCoordinator)

	if !errors.Is(err, ErrCourseRefNotFound) {
		t.Fatalf("课程与教室都缺失时应先报告课程，实际: %v", err)
	}
}

func TestScheduleService_Create_NonProfessorUser(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)

	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testCoordinator
	}), testCoordinator)

	if !errors.Is(err, ErrProfessorRefNotFound) {
		t.Fatalf("非教师角色不能作为授课教师，实际: %v", err)
	}
}

// ── 冲突检测 ──

func TestScheduleService_Create_TouchingEndpoints(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	mustCreate(t, svc, newCreateReq())

	// 同教师同教室同班级，紧接着上一节课
	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.StartMinutes, r.EndMinutes = intPtr(570), intPtr(660)
	}), testCoordinator)
	if err != nil {
		t.Fatalf("首尾相接不算冲突: %v", err)
	}
}

func TestScheduleService_Create_DimensionPriority(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	mustCreate(t, svc, newCreateReq())

	// 三个维度同时冲突，应报告教师
	_, err := svc.Create(context.Background(), newCreateReq(), testCoordinator)
	if !errors.Is(err, ErrProfessorBusy) {
		t.Fatalf("期望优先报告 ErrProfessorBusy，实际: %v", err)
	}

	// 教室与班级冲突，应报告教室
	_, err = svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testProfessor2
	}), testCoordinator)
	if !errors.Is(err, ErrClassroomBusy) {
		t.Fatalf("期望 ErrClassroomBusy，实际: %v", err)
	}

	// 仅班级冲突
	_, err = svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testProfessor2
		r.ClassroomID = testRoom2
	}), testCoordinator)
	if !errors.Is(err, ErrSectionBusy) {
		t.Fatalf("期望 ErrSectionBusy，实际: %v", err)
	}
}

func TestScheduleService_Create_ConflictIndependence(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	mustCreate(t, svc, newCreateReq())

	// 第一次请求被教师维度拒绝
	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ClassroomID = testRoom2
		r.Section = "B"
	}), testCoordinator)
	if !errors.Is(err, ErrProfessorBusy) {
		t.Fatalf("期望 ErrProfessorBusy，实际: %v", err)
	}

	// 另一个教师、同一教室同一时段，仍应被教室维度拒绝
	_, err = svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testProfessor2
		r.Section = "B"
	}), testCoordinator)
	if !errors.Is(err, ErrClassroomBusy) {
		t.Fatalf("期望 ErrClassroomBusy，实际: %v", err)
	}
}

func TestScheduleService_Create_ScopeIsolation(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	mustCreate(t, svc, newCreateReq())

	cases := map[string]func(r *dto.CreateScheduleRequest){
		"不同星期": func(r *dto.CreateScheduleRequest) { r.Day = intPtr(2) },
		"不同学年": func(r *dto.CreateScheduleRequest) { r.Year = intPtr(2025) },
		"不同学期": func(r *dto.CreateScheduleRequest) { r.Semester = intPtr(3) },
		"不同周期": func(r *dto.CreateScheduleRequest) { r.Cycle, r.Semester = intPtr(2), intPtr(2) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), newCreateReq(mutate), testCoordinator); err != nil {
				t.Fatalf("%s 不应冲突: %v", name, err)
			}
		})
	}
}

func TestScheduleService_Create_SectionTrimmed(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)

	resp := mustCreate(t, svc, newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.Section = "  A  "
	}))
	if resp.Section != "A" {
		t.Errorf("期望班级去除空白后为 A，实际=%q", resp.Section)
	}

	_, err := svc.Create(context.Background(), newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testProfessor2
		r.ClassroomID = testRoom2
		r.Section = "A "
	}), testCoordinator)
	if !errors.Is(err, ErrSectionBusy) {
		t.Fatalf("期望去空白后按同一班级判冲突，实际: %v", err)
	}
}

func TestScheduleService_Create_StoreError(t *testing.T) {
	svc, mocks := setupTestScheduleService(nil)
	mocks.schedules.findErr = fmt.Errorf("connection reset")

	_, err := svc.Create(context.Background(), newCreateReq(), testCoordinator)
	if pkgerrors.KindOf(err) != pkgerrors.KindStore {
		t.Fatalf("期望 store 分类，实际: %v", err)
	}
	if mocks.schedules.count() != 0 {
		t.Error("查询失败时不应持久化")
	}
}

// ── Update ──

func TestScheduleService_Update_NotFound(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)

	_, err := svc.Update(context.Background(), "sch-missing", &dto.UpdateScheduleRequest{Day: intPtr(2)}, testCoordinator)
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("期望 ErrScheduleNotFound，实际: %v", err)
	}
}

func TestScheduleService_Update_MetadataOnly(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	resp, err := svc.Update(context.Background(), a.ID, &dto.UpdateScheduleRequest{
		CourseID: strPtr(testCourse2),
	}, testCoordinator)
	if err != nil {
		t.Fatalf("只改课程不应与自身冲突: %v", err)
	}
	if resp.Course == nil || resp.Course.Code != "PRG101" {
		t.Errorf("期望课程更新为 PRG101，实际=%+v", resp.Course)
	}
	if resp.Professor == nil || resp.Professor.ID != testProfessor1 {
		t.Errorf("未覆盖的教师应保持不变，实际=%+v", resp.Professor)
	}
}

func TestScheduleService_Update_ConflictWithOther(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())
	b := mustCreate(t, svc, newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testProfessor2
		r.ClassroomID = testRoom2
		r.Section = "B"
		r.StartMinutes, r.EndMinutes = intPtr(600), intPtr(660)
	}))

	_, err := svc.Update(context.Background(), b.ID, &dto.UpdateScheduleRequest{
		ClassroomID:  strPtr(testRoom1),
		StartMinutes: intPtr(540),
	}, testCoordinator)
	if !errors.Is(err, ErrClassroomBusy) {
		t.Fatalf("期望 ErrClassroomBusy，实际: %v", err)
	}
	if e, _ := pkgerrors.As(err); e.ConflictID != a.ID {
		t.Errorf("期望冲突记录=%s，实际=%s", a.ID, e.ConflictID)
	}
}

func TestScheduleService_Update_MergedValidation(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	// 仅修改学期，与原周期合并后奇偶不符
	_, err := svc.Update(context.Background(), a.ID, &dto.UpdateScheduleRequest{
		Semester: intPtr(2),
	}, testCoordinator)
	if !errors.Is(err, ErrCycleParity) {
		t.Fatalf("期望 ErrCycleParity，实际: %v", err)
	}

	// 仅修改结束时间，早于原开始时间
	_, err = svc.Update(context.Background(), a.ID, &dto.UpdateScheduleRequest{
		EndMinutes: intPtr(400),
	}, testCoordinator)
	if !errors.Is(err, ErrTimeOrder) {
		t.Fatalf("期望 ErrTimeOrder，实际: %v", err)
	}

	// 同时修改周期与学期可通过
	if _, err := svc.Update(context.Background(), a.ID, &dto.UpdateScheduleRequest{
		Cycle:    intPtr(2),
		Semester: intPtr(2),
	}, testCoordinator); err != nil {
		t.Fatalf("周期与学期一起修改应成功: %v", err)
	}
}

func TestScheduleService_Update_InvalidOverride(t *testing.T) {
	svc, mocks := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	_, err := svc.Update(context.Background(), a.ID, &dto.UpdateScheduleRequest{
		ClassroomID: strPtr("room-missing"),
	}, testCoordinator)
	if !errors.Is(err, ErrClassroomRefNotFound) {
		t.Fatalf("期望 ErrClassroomRefNotFound，实际: %v", err)
	}

	stored, _ := mocks.schedules.GetByID(context.Background(), a.ID)
	if stored.ClassroomID != testRoom1 || stored.Version != 1 {
		t.Error("引用无效时不应修改原记录")
	}
}

func TestScheduleService_Update_KeepsDeletedRefs(t *testing.T) {
	svc, mocks := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	// 课程被删除后，未覆盖课程的更新仍可进行
	if _, err := mocks.courses.Delete(context.Background(), testCourse1, ""); err != nil {
		t.Fatalf("删除课程失败: %v", err)
	}
	resp, err := svc.Update(context.Background(), a.ID, &dto.UpdateScheduleRequest{
		Section: strPtr(" C "),
	}, testCoordinator)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Course != nil {
		t.Error("已删除的课程在关联视图中应为空")
	}
	if resp.CourseID != testCourse1 || resp.Section != "C" {
		t.Errorf("期望保留课程 ID 且班级为 C，实际=%s/%q", resp.CourseID, resp.Section)
	}
}

// ── Delete ──

func TestScheduleService_Delete(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	deleted, err := svc.Delete(context.Background(), a.ID, testCoordinator)
	if err != nil || !deleted {
		t.Fatalf("首次删除应成功: deleted=%v err=%v", deleted, err)
	}

	deleted, err = svc.Delete(context.Background(), a.ID, testCoordinator)
	if err != nil {
		t.Fatalf("重复删除不应报错: %v", err)
	}
	if deleted {
		t.Error("重复删除应返回 deleted=false")
	}
}

func TestScheduleService_Delete_FreesSlot(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	if _, err := svc.Delete(context.Background(), a.ID, testCoordinator); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	mustCreate(t, svc, newCreateReq())
}

// ── List / GetByID ──

func TestScheduleService_List_OrderAndFilters(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)

	tue := mustCreate(t, svc, newCreateReq(func(r *dto.CreateScheduleRequest) { r.Day = intPtr(2) }))
	monLate := mustCreate(t, svc, newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.StartMinutes, r.EndMinutes = intPtr(600), intPtr(660)
	}))
	monEarly := mustCreate(t, svc, newCreateReq())
	// 同一天同一开始时间，后创建的排在前面
	monEarlyNewer := mustCreate(t, svc, newCreateReq(func(r *dto.CreateScheduleRequest) {
		r.ProfessorID = testProfessor2
		r.ClassroomID = testRoom2
		r.Section = " B "
	}))

	all, err := svc.List(context.Background(), &dto.ScheduleListRequest{})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	want := []string{monEarlyNewer.ID, monEarly.ID, monLate.ID, tue.ID}
	if len(all) != len(want) {
		t.Fatalf("期望 %d 条，实际 %d 条", len(want), len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("第 %d 条期望 %s，实际 %s", i, id, all[i].ID)
		}
	}

	again, _ := svc.List(context.Background(), &dto.ScheduleListRequest{})
	for i := range all {
		if again[i].ID != all[i].ID {
			t.Fatal("相同条件的两次 List 结果应一致")
		}
	}

	bySection, _ := svc.List(context.Background(), &dto.ScheduleListRequest{Section: "  B"})
	if len(bySection) != 1 || bySection[0].ID != monEarlyNewer.ID {
		t.Errorf("班级过滤应去除空白后精确匹配，实际=%d 条", len(bySection))
	}

	byDay, _ := svc.List(context.Background(), &dto.ScheduleListRequest{Day: intPtr(2), ProfessorID: testProfessor1})
	if len(byDay) != 1 || byDay[0].ID != tue.ID {
		t.Errorf("按星期+教师过滤期望 1 条，实际=%d 条", len(byDay))
	}
}

func TestScheduleService_GetByID(t *testing.T) {
	svc, _ := setupTestScheduleService(nil)
	a := mustCreate(t, svc, newCreateReq())

	got, err := svc.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if got.Classroom == nil || got.Classroom.ID != testRoom1 {
		t.Errorf("期望关联教室 %s", testRoom1)
	}

	_, err = svc.GetByID(context.Background(), "sch-missing")
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("期望 ErrScheduleNotFound，实际: %v", err)
	}
}

// ── 并发 ──

func TestScheduleService_Create_LocalLockSerializesScope(t *testing.T) {
	svc, mocks := setupTestScheduleService(NewLocalScopeLocker())

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), newCreateReq(), testCoordinator)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrProfessorBusy):
				conflicts++
			default:
				t.Errorf("意外错误: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != n-1 {
		t.Errorf("期望 1 成功 %d 冲突，实际 %d 成功 %d 冲突", n-1, successes, conflicts)
	}
	if mocks.schedules.count() != 1 {
		t.Errorf("期望只持久化 1 条，实际=%d", mocks.schedules.count())
	}
}
