package academics

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	scraper "jwassist-backend/lib/scrapers/jw"
	"jwassist-backend/lib/telemetry"
	"jwassist-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	current     scraper.CurrentSemester
	buildings   []scraper.Building
	grades      []scraper.CourseGrade
	gpa         scraper.GPAInfo
	gpaErr      error
	semesters   []scraper.SemesterInfo
	firstDay    time.Time
	classrooms  []scraper.Classroom
	occupancies []scraper.Occupancy

	calls         map[string]int
	lastRoomQuery scraper.RoomQuery
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		current:  scraper.CurrentSemester{AcademicYear: "2024-2025", FullCode: "2024-20252", SemesterCode: "2"},
		firstDay: timezone.Date(2025, time.February, 17),
		calls:    map[string]int{},
	}
}

func (f *fakePortal) FetchAllGrades(ctx context.Context) ([]scraper.CourseGrade, error) {
	f.calls["grades"]++
	return f.grades, nil
}

func (f *fakePortal) FetchGPA(ctx context.Context) (scraper.GPAInfo, error) {
	f.calls["gpa"]++
	return f.gpa, f.gpaErr
}

func (f *fakePortal) FetchCurrentSemester(ctx context.Context) (scraper.CurrentSemester, error) {
	f.calls["current"]++
	return f.current, nil
}

func (f *fakePortal) FetchBuildings(ctx context.Context) ([]scraper.Building, error) {
	f.calls["buildings"]++
	return f.buildings, nil
}

func (f *fakePortal) FetchSemesters(ctx context.Context) ([]scraper.SemesterInfo, error) {
	f.calls["semesters"]++
	return f.semesters, nil
}

func (f *fakePortal) FetchSemesterFirstDay(ctx context.Context, academicYear, semesterCode string) (time.Time, error) {
	f.calls["firstDay"]++
	return f.firstDay, nil
}

func (f *fakePortal) FetchClassrooms(ctx context.Context, q scraper.RoomQuery) ([]scraper.Classroom, error) {
	f.calls["classrooms"]++
	f.lastRoomQuery = q
	return f.classrooms, nil
}

func (f *fakePortal) FetchOccupancies(ctx context.Context, q scraper.RoomQuery) ([]scraper.Occupancy, error) {
	f.calls["occupancies"]++
	return f.occupancies, nil
}

func TestQueryAvailabilityDefaultsAndCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/academics")
	defer cleanup()

	portal := newFakePortal()
	portal.classrooms = []scraper.Classroom{{Name: "T5204", Code: "T5204", Seats: 120, Borrowable: true}}
	service := New(portal)
	ctx := context.Background()

	first, err := service.QueryAvailability(ctx, AvailabilityQuery{
		BuildingCode: "T5",
		Weeks:        []int{3, 4, 5},
	})
	require.NoError(t, err)
	// blank semester identifiers resolve through the current semester
	require.Equal(t, "2024-2025", first.AcademicYear)
	require.Equal(t, "2", first.SemesterCode)
	require.Equal(t, 1, portal.calls["classrooms"])
	require.Equal(t, "0001110000000000000000000000000000", first.WeekMask)
	require.Equal(t, first.WeekMask, portal.lastRoomQuery.WeekMask)
	require.Equal(t, "3,4,5", portal.lastRoomQuery.WeekSpec)

	// an equivalent week spec hits the same cache entry
	second, err := service.QueryAvailability(ctx, AvailabilityQuery{
		BuildingCode: "T5",
		WeekSpec:     "3-5",
	})
	require.NoError(t, err)
	require.Equal(t, 1, portal.calls["classrooms"])
	require.Equal(t, first.QueriedAt, second.QueriedAt)

	third, err := service.QueryAvailability(ctx, AvailabilityQuery{
		BuildingCode: "T5",
		WeekSpec:     "3-5",
		NoCache:      true,
	})
	require.NoError(t, err)
	require.Equal(t, 2, portal.calls["classrooms"])
	require.False(t, third.QueriedAt.Before(first.QueriedAt))
}

func TestQueryAvailabilityValidation(t *testing.T) {
	service := New(newFakePortal())
	ctx := context.Background()

	var valerr ValidationError

	_, err := service.QueryAvailability(ctx, AvailabilityQuery{Weeks: []int{1}})
	require.ErrorAs(t, err, &valerr)
	require.Equal(t, "building_code", valerr.Field)

	_, err = service.QueryAvailability(ctx, AvailabilityQuery{BuildingCode: "T5"})
	require.ErrorAs(t, err, &valerr)
	require.Equal(t, "weeks", valerr.Field)

	_, err = service.QueryAvailability(ctx, AvailabilityQuery{BuildingCode: "T5", WeekSpec: "5-3"})
	require.ErrorAs(t, err, &valerr)
	require.Equal(t, "weeks", valerr.Field)
}

func TestAvailableClassrooms(t *testing.T) {
	portal := newFakePortal()
	portal.classrooms = []scraper.Classroom{
		{Name: "T5101", Code: "T5101", Seats: 60, Borrowable: true},
		{Name: "T5204", Code: "T5204", Seats: 120, Borrowable: true},
		{Name: "T5105", Code: "T5105", Seats: 200, Borrowable: false},
	}
	portal.occupancies = []scraper.Occupancy{
		{ClassroomCode: "T5204", Weekday: 1, Period: 3},
		{ClassroomCode: "T5101", Weekday: 1, Period: 3},
	}
	service := New(portal)
	ctx := context.Background()
	query := AvailabilityQuery{BuildingCode: "T5", Weeks: []int{3}}

	// every borrowable room is taken on monday period 3
	rooms, err := service.AvailableClassrooms(ctx, query, RoomFilter{Weekday: 1, Period: 3})
	require.NoError(t, err)
	require.Empty(t, rooms)

	// nothing scheduled on tuesday, largest room first
	rooms, err = service.AvailableClassrooms(ctx, query, RoomFilter{Weekday: 2})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	require.Equal(t, "T5204", rooms[0].Code)
	require.Equal(t, "T5101", rooms[1].Code)

	rooms, err = service.AvailableClassrooms(ctx, query, RoomFilter{Weekday: 2, MinSeats: 100})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, "T5204", rooms[0].Code)
}

func TestWeekAndWeekday(t *testing.T) {
	portal := newFakePortal()
	service := New(portal)
	ctx := context.Background()

	info, err := service.WeekAndWeekday(ctx, timezone.Date(2025, time.March, 10), "", "")
	require.NoError(t, err)
	require.Equal(t, 3, info.Week)
	require.Equal(t, 1, info.Weekday)

	info, err = service.WeekAndWeekday(ctx, timezone.Date(2025, time.February, 17), "", "")
	require.NoError(t, err)
	require.Equal(t, 0, info.Week)
	require.Equal(t, 1, info.Weekday)

	// the sunday before the semester is still the previous week
	info, err = service.WeekAndWeekday(ctx, timezone.Date(2025, time.February, 16), "", "")
	require.NoError(t, err)
	require.Equal(t, -1, info.Week)
	require.Equal(t, 7, info.Weekday)

	// first day resolutions are cached without expiry
	require.Equal(t, 1, portal.calls["firstDay"])
}

func TestAllGradesWithoutGPA(t *testing.T) {
	portal := newFakePortal()
	portal.grades = []scraper.CourseGrade{{CourseId: "MATH1001", Semester: "2024-20251"}}
	portal.gpaErr = errors.New("gpa endpoint down")
	service := New(portal)

	transcript, err := service.AllGrades(context.Background())
	require.NoError(t, err)
	require.Len(t, transcript.Grades, 1)
	require.Nil(t, transcript.GPA)

	// memoized, including the degraded gpa outcome
	_, err = service.AllGrades(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, portal.calls["grades"])
}

func TestSemesterList(t *testing.T) {
	portal := newFakePortal()
	portal.grades = []scraper.CourseGrade{
		{CourseId: "A", Semester: "2023-20242", SemesterDisplay: "2023-2024 春"},
		{CourseId: "B", Semester: "2024-20251", SemesterDisplay: "2024-2025 秋"},
		{CourseId: "C", Semester: "2023-20242", SemesterDisplay: "2023-2024 春"},
	}
	service := New(portal)

	semesters, err := service.SemesterList(context.Background())
	require.NoError(t, err)

	want := []SemesterOption{
		{Code: "2024-20251", Name: "2024-2025 秋"},
		{Code: "2023-20242", Name: "2023-2024 春"},
	}
	require.Empty(t, cmp.Diff(want, semesters))
}

func TestGradesBySemester(t *testing.T) {
	portal := newFakePortal()
	portal.grades = []scraper.CourseGrade{
		{CourseId: "A", Semester: "2023-20242"},
		{CourseId: "B", Semester: "2024-20251"},
	}
	service := New(portal)

	grades, err := service.GradesBySemester(context.Background(), "2024-20251")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	require.Equal(t, "B", grades[0].CourseId)
}

func TestExportGradesCSV(t *testing.T) {
	portal := newFakePortal()
	portal.grades = []scraper.CourseGrade{
		{
			CourseId: "MATH1001", CourseName: "数学分析", Credit: 5,
			SemesterDisplay: "2024-2025 秋", Score: "92", IsPass: true,
		},
	}
	portal.gpa = scraper.GPAInfo{Gpa: 3.82, Rank: 17, TotalStudents: 243, RankPercentage: 7}
	service := New(portal)

	var buf bytes.Buffer
	err := service.ExportGradesCSV(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.Bytes()
	require.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
	require.Contains(t, string(out), "GPA 统计信息")
	require.Contains(t, string(out), "7%")
	require.Contains(t, string(out), "MATH1001,数学分析")
	require.Contains(t, string(out), ",是,否,")
}

func TestRefreshDropsCaches(t *testing.T) {
	portal := newFakePortal()
	service := New(portal)
	ctx := context.Background()

	_, err := service.CurrentSemester(ctx)
	require.NoError(t, err)
	_, err = service.QueryAvailability(ctx, AvailabilityQuery{BuildingCode: "T5", Weeks: []int{1}})
	require.NoError(t, err)
	require.Equal(t, 1, portal.calls["current"])
	require.Equal(t, 1, portal.calls["classrooms"])

	require.NoError(t, service.Refresh(ctx))

	_, err = service.CurrentSemester(ctx)
	require.NoError(t, err)
	_, err = service.QueryAvailability(ctx, AvailabilityQuery{BuildingCode: "T5", Weeks: []int{1}})
	require.NoError(t, err)
	require.Equal(t, 2, portal.calls["current"])
	require.Equal(t, 2, portal.calls["classrooms"])
}

func TestToolsEnvelopeNeverErrors(t *testing.T) {
	portal := newFakePortal()
	tools := Tools{Service: New(portal)}
	ctx := context.Background()

	result := tools.QueryAvailability(ctx, AvailabilityQuery{})
	require.False(t, result.Success)
	require.Contains(t, result.Message, "failed")

	result = tools.WeekAndWeekday(ctx, "2025-03-10", "", "")
	require.True(t, result.Success)
	info, ok := result.Data.(WeekdayInfo)
	require.True(t, ok)
	require.Equal(t, 3, info.Week)

	result = tools.ParseWeekSpec("not-a-spec")
	require.False(t, result.Success)
}
