// Package academics resolves classroom availability, academic
// calendar arithmetic and transcript queries on top of the portal
// scraper, with the caching the upstream endpoints are too slow to
// live without.
package academics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	scraper "jwassist-backend/lib/scrapers/jw"
	"jwassist-backend/lib/timezone"
	"jwassist-backend/lib/weekmask"

	"github.com/hashicorp/golang-lru/v2/expirable"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/academics")

const availabilityTTL = 5 * time.Minute

// Portal is the slice of the scraper client the service depends on,
// kept narrow so tests can stub the portal without a live session.
type Portal interface {
	FetchAllGrades(ctx context.Context) ([]scraper.CourseGrade, error)
	FetchGPA(ctx context.Context) (scraper.GPAInfo, error)
	FetchCurrentSemester(ctx context.Context) (scraper.CurrentSemester, error)
	FetchBuildings(ctx context.Context) ([]scraper.Building, error)
	FetchSemesters(ctx context.Context) ([]scraper.SemesterInfo, error)
	FetchSemesterFirstDay(ctx context.Context, academicYear, semesterCode string) (time.Time, error)
	FetchClassrooms(ctx context.Context, q scraper.RoomQuery) ([]scraper.Classroom, error)
	FetchOccupancies(ctx context.Context, q scraper.RoomQuery) ([]scraper.Occupancy, error)
}

// ValidationError reports a query that cannot be sent upstream.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Service struct {
	portal Portal

	mu              sync.Mutex
	currentSemester *scraper.CurrentSemester
	buildings       []scraper.Building
	transcript      *Transcript

	// availability entries expire after 5 minutes and are evicted
	// lazily on read, never swept by a background goroutine
	availability *gocache.Cache
	firstDays    *expirable.LRU[string, time.Time]
}

func New(portal Portal) *Service {
	return &Service{
		portal:       portal,
		availability: gocache.New(availabilityTTL, 0),
		firstDays:    expirable.NewLRU[string, time.Time](32, nil, 0),
	}
}

// CurrentSemester resolves the semester the portal currently serves,
// memoized until Refresh.
func (s *Service) CurrentSemester(ctx context.Context) (scraper.CurrentSemester, error) {
	s.mu.Lock()
	cached := s.currentSemester
	s.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	semester, err := s.portal.FetchCurrentSemester(ctx)
	if err != nil {
		return scraper.CurrentSemester{}, err
	}

	s.mu.Lock()
	s.currentSemester = &semester
	s.mu.Unlock()
	return semester, nil
}

// Buildings lists the teaching buildings, memoized until Refresh.
func (s *Service) Buildings(ctx context.Context) ([]scraper.Building, error) {
	s.mu.Lock()
	cached := s.buildings
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	buildings, err := s.portal.FetchBuildings(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.buildings = buildings
	s.mu.Unlock()
	return buildings, nil
}

// Semesters lists every semester the room booking module knows about.
func (s *Service) Semesters(ctx context.Context) ([]scraper.SemesterInfo, error) {
	return s.portal.FetchSemesters(ctx)
}

// resolveSemester substitutes the current semester for whichever of
// the two identifiers the caller left blank.
func (s *Service) resolveSemester(ctx context.Context, academicYear, semesterCode string) (string, string, error) {
	if academicYear != "" && semesterCode != "" {
		return academicYear, semesterCode, nil
	}
	current, err := s.CurrentSemester(ctx)
	if err != nil {
		return "", "", err
	}
	if academicYear == "" {
		academicYear = current.AcademicYear
	}
	if semesterCode == "" {
		semesterCode = current.SemesterCode
	}
	return academicYear, semesterCode, nil
}

// SemesterFirstDay resolves the first Monday of a semester. Blank
// identifiers default to the current semester. Resolved dates are
// cached without expiry, the academic calendar does not move.
func (s *Service) SemesterFirstDay(ctx context.Context, academicYear, semesterCode string) (time.Time, error) {
	academicYear, semesterCode, err := s.resolveSemester(ctx, academicYear, semesterCode)
	if err != nil {
		return time.Time{}, err
	}

	key := academicYear + "_" + semesterCode
	if firstDay, ok := s.firstDays.Get(key); ok {
		return firstDay, nil
	}

	firstDay, err := s.portal.FetchSemesterFirstDay(ctx, academicYear, semesterCode)
	if err != nil {
		return time.Time{}, err
	}
	s.firstDays.Add(key, firstDay)
	return firstDay, nil
}

// WeekdayInfo locates a date on the semester grid. Week counts from
// zero at the semester's first week and is negative before it;
// Weekday runs Monday=1 through Sunday=7.
type WeekdayInfo struct {
	Week    int       `json:"week"`
	Weekday int       `json:"weekday"`
	Date    time.Time `json:"date"`
}

// WeekAndWeekday computes which teaching week and weekday a date
// falls on, relative to the semester's first day.
func (s *Service) WeekAndWeekday(ctx context.Context, date time.Time, academicYear, semesterCode string) (WeekdayInfo, error) {
	firstDay, err := s.SemesterFirstDay(ctx, academicYear, semesterCode)
	if err != nil {
		return WeekdayInfo{}, err
	}

	local := date.In(timezone.Location)
	midnight := timezone.Date(local.Year(), local.Month(), local.Day())
	days := int(midnight.Sub(firstDay) / (24 * time.Hour))

	weekday := int(midnight.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	return WeekdayInfo{
		Week:    floorDiv(days, 7),
		Weekday: weekday,
		Date:    midnight,
	}, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// AvailabilityQuery selects a building/week slice. Weeks takes
// precedence over WeekSpec when both are set; blank semester
// identifiers default to the current semester.
type AvailabilityQuery struct {
	AcademicYear string
	SemesterCode string
	BuildingCode string
	Weeks        []int
	WeekSpec     string
	NoCache      bool
}

type AvailabilityResult struct {
	AcademicYear string              `json:"academic_year"`
	SemesterCode string              `json:"semester_code"`
	BuildingCode string              `json:"building_code"`
	WeekMask     string              `json:"week_mask"`
	Classrooms   []scraper.Classroom `json:"classrooms"`
	Occupancies  []scraper.Occupancy `json:"occupancies"`
	QueriedAt    time.Time           `json:"queried_at"`
}

// QueryAvailability fetches a building's room inventory and occupancy
// list for a set of weeks, serving repeated queries from a short
// lived cache.
func (s *Service) QueryAvailability(ctx context.Context, query AvailabilityQuery) (AvailabilityResult, error) {
	ctx, span := tracer.Start(ctx, "QueryAvailability")
	defer span.End()

	academicYear, semesterCode, err := s.resolveSemester(ctx, query.AcademicYear, query.SemesterCode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve semester")
		return AvailabilityResult{}, err
	}
	if query.BuildingCode == "" {
		return AvailabilityResult{}, ValidationError{Field: "building_code", Reason: "must not be empty"}
	}

	weeks := query.Weeks
	if weeks == nil && query.WeekSpec != "" {
		weeks, err = weekmask.Parse(query.WeekSpec)
		if err != nil {
			return AvailabilityResult{}, ValidationError{Field: "weeks", Reason: err.Error()}
		}
	}
	if len(weeks) == 0 {
		return AvailabilityResult{}, ValidationError{Field: "weeks", Reason: "at least one week is required"}
	}

	mask := weekmask.Encode(weeks)
	key := academicYear + "|" + semesterCode + "|" + query.BuildingCode + "|" + mask

	if !query.NoCache {
		if cached, ok := s.availability.Get(key); ok {
			return cached.(AvailabilityResult), nil
		}
	}

	roomQuery := scraper.RoomQuery{
		AcademicYear: academicYear,
		SemesterCode: semesterCode,
		BuildingCode: query.BuildingCode,
		WeekMask:     mask,
		WeekSpec:     weekmask.Spec(weeks),
	}
	classrooms, err := s.portal.FetchClassrooms(ctx, roomQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch classrooms")
		return AvailabilityResult{}, err
	}
	occupancies, err := s.portal.FetchOccupancies(ctx, roomQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch occupancies")
		return AvailabilityResult{}, err
	}

	result := AvailabilityResult{
		AcademicYear: academicYear,
		SemesterCode: semesterCode,
		BuildingCode: query.BuildingCode,
		WeekMask:     mask,
		Classrooms:   classrooms,
		Occupancies:  occupancies,
		QueriedAt:    timezone.Now(),
	}
	if !query.NoCache {
		s.availability.SetDefault(key, result)
	}
	return result, nil
}

// RoomFilter narrows an availability result. Zero values leave the
// corresponding dimension unfiltered.
type RoomFilter struct {
	Weekday  int
	Period   int
	MinSeats int
}

// AvailableClassrooms returns the borrowable rooms of a building that
// have no occupation matching the filter, largest first.
func (s *Service) AvailableClassrooms(ctx context.Context, query AvailabilityQuery, filter RoomFilter) ([]scraper.Classroom, error) {
	availability, err := s.QueryAvailability(ctx, query)
	if err != nil {
		return nil, err
	}

	occupied := map[string]bool{}
	for _, occupancy := range availability.Occupancies {
		if filter.Weekday != 0 && occupancy.Weekday != filter.Weekday {
			continue
		}
		if filter.Period != 0 && occupancy.Period != filter.Period {
			continue
		}
		occupied[occupancy.ClassroomCode] = true
	}

	available := []scraper.Classroom{}
	for _, room := range availability.Classrooms {
		if occupied[room.Code] || !room.Borrowable {
			continue
		}
		if filter.MinSeats != 0 && room.Seats < filter.MinSeats {
			continue
		}
		available = append(available, room)
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Seats > available[j].Seats
	})
	return available, nil
}

// Refresh drops every cache and reloads the transcript.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.currentSemester = nil
	s.buildings = nil
	s.transcript = nil
	s.mu.Unlock()
	s.availability.Flush()
	s.firstDays.Purge()

	_, err := s.AllGrades(ctx)
	if err != nil {
		slog.WarnContext(ctx, "transcript reload failed during refresh", "err", err)
		return err
	}
	return nil
}
