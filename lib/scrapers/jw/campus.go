package jw

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"jwassist-backend/lib/timezone"
)

// FetchCurrentSemester reads the semester the portal currently serves
// timetables for.
func (c *Client) FetchCurrentSemester(ctx context.Context) (CurrentSemester, error) {
	var raw struct {
		AcademicYear looseString `json:"XN"`
		FullCode     looseString `json:"XNXQ"`
		SemesterCode looseString `json:"XQ"`
	}
	err := c.call(ctx, epCurrentSemester, nil, &raw)
	if err != nil {
		return CurrentSemester{}, err
	}
	if raw.AcademicYear == "" || raw.SemesterCode == "" {
		return CurrentSemester{}, SchemaError{Endpoint: epCurrentSemester.name, Field: "XN/XQ"}
	}
	return CurrentSemester{
		AcademicYear: string(raw.AcademicYear),
		FullCode:     string(raw.FullCode),
		SemesterCode: string(raw.SemesterCode),
	}, nil
}

// FetchBuildings lists the teaching buildings known to the room
// booking module. Malformed entries are logged and skipped.
func (c *Client) FetchBuildings(ctx context.Context) ([]Building, error) {
	var rows []json.RawMessage
	err := c.call(ctx, epBuildings, nil, &rows)
	if err != nil {
		return nil, err
	}

	buildings := make([]Building, 0, len(rows))
	for _, raw := range rows {
		var row struct {
			Name   looseString `json:"MC"`
			Code   looseString `json:"DM"`
			NameEn looseString `json:"MC_EN"`
		}
		err := json.Unmarshal(raw, &row)
		if err != nil || row.Code == "" {
			slog.WarnContext(ctx, "skipping malformed building entry", "err", err)
			continue
		}
		buildings = append(buildings, Building{
			Name:   string(row.Name),
			Code:   string(row.Code),
			NameEn: string(row.NameEn),
		})
	}
	return buildings, nil
}

// FetchSemesters lists every semester selectable in the room booking
// module, newest first as the portal returns them.
func (c *Client) FetchSemesters(ctx context.Context) ([]SemesterInfo, error) {
	var res struct {
		Code    looseInt          `json:"code"`
		Content []json.RawMessage `json:"content"`
	}
	err := c.call(ctx, epSemesters, "data=", &res)
	if err != nil {
		return nil, err
	}
	if res.Code != 200 {
		return nil, SchemaError{Endpoint: epSemesters.name, Field: "code"}
	}

	semesters := make([]SemesterInfo, 0, len(res.Content))
	for _, raw := range res.Content {
		var row struct {
			AcademicYear   looseString `json:"XN"`
			SemesterCode   looseString `json:"XQ"`
			YearName       looseString `json:"XNMC"`
			SemesterName   looseString `json:"XQMC"`
			YearNameEn     looseString `json:"XNMC_EN"`
			SemesterNameEn looseString `json:"XQMC_EN"`
		}
		err := json.Unmarshal(raw, &row)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed semester entry", "err", err)
			continue
		}
		semesters = append(semesters, SemesterInfo{
			AcademicYear:   string(row.AcademicYear),
			SemesterCode:   string(row.SemesterCode),
			YearName:       string(row.YearName),
			SemesterName:   string(row.SemesterName),
			YearNameEn:     string(row.YearNameEn),
			SemesterNameEn: string(row.SemesterNameEn),
		})
	}
	return semesters, nil
}

// FetchSemesterFirstDay resolves the date of the first Monday of a
// semester from the academic calendar. The calendar endpoint returns
// the month grid anchored on that day as its first entry.
func (c *Client) FetchSemesterFirstDay(ctx context.Context, academicYear, semesterCode string) (time.Time, error) {
	body := fmt.Sprintf("dm=&zyw=zh&xnxq=&pxn=%s&pxq=%s", academicYear, semesterCode)

	var res struct {
		Calendar []struct {
			Date     looseString `json:"RQ"`
			Semester looseString `json:"XNXQ"`
		} `json:"xlList"`
	}
	err := c.call(ctx, epMonthCalendar, body, &res)
	if err != nil {
		return time.Time{}, err
	}
	if len(res.Calendar) == 0 {
		return time.Time{}, SchemaError{Endpoint: epMonthCalendar.name, Field: "xlList"}
	}
	date := string(res.Calendar[0].Date)
	if date == "" {
		return time.Time{}, SchemaError{Endpoint: epMonthCalendar.name, Field: "xlList[0].RQ"}
	}

	firstDay, err := time.ParseInLocation("2006-01-02", date, timezone.Location)
	if err != nil {
		return time.Time{}, SchemaError{Endpoint: epMonthCalendar.name, Field: "xlList[0].RQ"}
	}
	return firstDay, nil
}
