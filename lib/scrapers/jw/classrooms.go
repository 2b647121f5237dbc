package jw

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
)

// RoomQuery identifies one building/week slice of the room booking
// module. WeekMask is the 34-position bitmask and WeekSpec its
// human-readable form, both produced by lib/weekmask.
type RoomQuery struct {
	AcademicYear string
	SemesterCode string
	BuildingCode string
	WeekMask     string
	WeekSpec     string
}

func (q RoomQuery) form(pageNum, pageSize int) string {
	values := url.Values{
		"pxn":    {q.AcademicYear},
		"pxq":    {q.SemesterCode},
		"dmmc":   {""},
		"xiaoqu": {""},
		"jxl":    {q.BuildingCode},
		"cdlb":   {""},
		"zc":     {q.WeekMask},
		// without wpksfxs=1 the portal omits rooms that have no
		// scheduled classes at all
		"wpksfxs":  {"1"},
		"qsjsz":    {q.WeekSpec},
		"kjs":      {"0"},
		"xsbkycd":  {"0"},
		"zws":      {""},
		"pageNum":  {strconv.Itoa(pageNum)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	return values.Encode()
}

// FetchClassrooms lists the building's room inventory for the queried
// weeks. Malformed entries are logged and skipped, and a response
// without a list degrades to an empty inventory.
func (c *Client) FetchClassrooms(ctx context.Context, q RoomQuery) ([]Classroom, error) {
	const pageSize = 100

	rows, total, err := c.fetchClassroomPage(ctx, q, pageSize)
	if err != nil {
		var gwerr GatewayError
		if errors.As(err, &gwerr) && gwerr.undecodable() {
			slog.WarnContext(ctx, "classroom response is not a page, treating as empty", "err", gwerr.Err)
			return nil, nil
		}
		return nil, err
	}
	if total > pageSize {
		rows, _, err = c.fetchClassroomPage(ctx, q, total)
		if err != nil {
			return nil, err
		}
	}

	classrooms := make([]Classroom, 0, len(rows))
	for _, raw := range rows {
		var row rawClassroom
		err := json.Unmarshal(raw, &row)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed classroom entry", "err", err)
			continue
		}
		classrooms = append(classrooms, row.classroom())
	}
	return classrooms, nil
}

func (c *Client) fetchClassroomPage(ctx context.Context, q RoomQuery, pageSize int) ([]json.RawMessage, int, error) {
	var res struct {
		List  []json.RawMessage `json:"list"`
		Total looseInt          `json:"total"`
	}
	err := c.call(ctx, epClassrooms, q.form(1, pageSize), &res)
	if err != nil {
		return nil, 0, err
	}
	return res.List, int(res.Total), nil
}

// FetchOccupancies lists every scheduled occupation of the building's
// rooms for the queried weeks. The endpoint returns a bare array; any
// other shape degrades to an empty list with a logged warning.
func (c *Client) FetchOccupancies(ctx context.Context, q RoomQuery) ([]Occupancy, error) {
	var rows []json.RawMessage
	err := c.call(ctx, epOccupancies, q.form(1, 1000), &rows)
	if err != nil {
		var gwerr GatewayError
		if errors.As(err, &gwerr) && gwerr.undecodable() {
			slog.WarnContext(ctx, "occupancy response is not a list, treating as empty", "err", gwerr.Err)
			return nil, nil
		}
		return nil, err
	}

	occupancies := make([]Occupancy, 0, len(rows))
	for _, raw := range rows {
		var row rawOccupancy
		err := json.Unmarshal(raw, &row)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed occupancy entry", "err", err)
			continue
		}
		occupancies = append(occupancies, row.occupancy())
	}
	return occupancies, nil
}
