package academics

import (
	"context"
	"fmt"
	"time"

	"jwassist-backend/lib/timezone"
	"jwassist-backend/lib/weekmask"
)

// ToolResult is the envelope served to assistant tooling: failures
// are reported inside the payload, never as a transport error.
type ToolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(message string, data any) ToolResult {
	return ToolResult{Success: true, Message: message, Data: data}
}

func fail(action string, err error) ToolResult {
	return ToolResult{Success: false, Message: fmt.Sprintf("%s failed: %s", action, err)}
}

// Tools wraps the service for exposure as assistant tools.
type Tools struct {
	Service *Service
}

func (t Tools) AllGrades(ctx context.Context) ToolResult {
	transcript, err := t.Service.AllGrades(ctx)
	if err != nil {
		return fail("fetching grades", err)
	}
	return ok(fmt.Sprintf("fetched %d course grades", len(transcript.Grades)), transcript)
}

func (t Tools) GPAInfo(ctx context.Context) ToolResult {
	transcript, err := t.Service.AllGrades(ctx)
	if err != nil {
		return fail("fetching gpa info", err)
	}
	if transcript.GPA == nil {
		return ToolResult{Success: false, Message: "no gpa info available"}
	}
	return ok("fetched gpa info", transcript.GPA)
}

func (t Tools) SemesterList(ctx context.Context) ToolResult {
	semesters, err := t.Service.SemesterList(ctx)
	if err != nil {
		return fail("listing semesters", err)
	}
	return ok(fmt.Sprintf("found %d semesters with grades", len(semesters)), semesters)
}

func (t Tools) GradesBySemester(ctx context.Context, semesterCode string) ToolResult {
	grades, err := t.Service.GradesBySemester(ctx, semesterCode)
	if err != nil {
		return fail("fetching semester grades", err)
	}
	return ok(fmt.Sprintf("found %d grades in %s", len(grades), semesterCode), grades)
}

func (t Tools) CurrentSemester(ctx context.Context) ToolResult {
	semester, err := t.Service.CurrentSemester(ctx)
	if err != nil {
		return fail("fetching current semester", err)
	}
	return ok("fetched current semester", semester)
}

func (t Tools) Semesters(ctx context.Context) ToolResult {
	semesters, err := t.Service.Semesters(ctx)
	if err != nil {
		return fail("listing all semesters", err)
	}
	return ok(fmt.Sprintf("found %d semesters", len(semesters)), semesters)
}

func (t Tools) Buildings(ctx context.Context) ToolResult {
	buildings, err := t.Service.Buildings(ctx)
	if err != nil {
		return fail("listing teaching buildings", err)
	}
	return ok(fmt.Sprintf("found %d teaching buildings", len(buildings)), buildings)
}

func (t Tools) SemesterFirstDay(ctx context.Context, academicYear, semesterCode string) ToolResult {
	firstDay, err := t.Service.SemesterFirstDay(ctx, academicYear, semesterCode)
	if err != nil {
		return fail("fetching semester first day", err)
	}
	return ok("fetched semester first day", firstDay.Format("2006-01-02"))
}

func (t Tools) WeekAndWeekday(ctx context.Context, date string, academicYear, semesterCode string) ToolResult {
	parsed, err := time.ParseInLocation("2006-01-02", date, timezone.Location)
	if err != nil {
		return fail("parsing date", err)
	}
	info, err := t.Service.WeekAndWeekday(ctx, parsed, academicYear, semesterCode)
	if err != nil {
		return fail("calculating week and weekday", err)
	}
	return ok("calculated week and weekday", info)
}

func (t Tools) QueryAvailability(ctx context.Context, query AvailabilityQuery) ToolResult {
	availability, err := t.Service.QueryAvailability(ctx, query)
	if err != nil {
		return fail("querying classroom availability", err)
	}
	return ok(fmt.Sprintf("found %d classrooms and %d occupancies",
		len(availability.Classrooms), len(availability.Occupancies)), availability)
}

func (t Tools) AvailableClassrooms(ctx context.Context, query AvailabilityQuery, filter RoomFilter) ToolResult {
	rooms, err := t.Service.AvailableClassrooms(ctx, query, filter)
	if err != nil {
		return fail("finding available classrooms", err)
	}
	return ok(fmt.Sprintf("found %d available classrooms", len(rooms)), rooms)
}

func (t Tools) GenerateWeekMask(weeks []int) ToolResult {
	return ok("generated week mask", weekmask.Encode(weeks))
}

func (t Tools) ParseWeekSpec(spec string) ToolResult {
	weeks, err := weekmask.Parse(spec)
	if err != nil {
		return fail("parsing week spec", err)
	}
	return ok("parsed week spec", weeks)
}

func (t Tools) Refresh(ctx context.Context) ToolResult {
	err := t.Service.Refresh(ctx)
	if err != nil {
		return fail("refreshing data", err)
	}
	return ok("all cached data refreshed", nil)
}
