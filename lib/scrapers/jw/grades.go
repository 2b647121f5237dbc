package jw

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
)

type gradesQuery struct {
	Xn       *string `json:"xn"`
	Xq       *string `json:"xq"`
	Kcmc     *string `json:"kcmc"`
	Cxbj     string  `json:"cxbj"`
	Pylx     string  `json:"pylx"`
	Current  int     `json:"current"`
	PageSize int     `json:"pageSize"`
	Sffx     *string `json:"sffx"`
}

type GradePage struct {
	Grades []CourseGrade
	Total  int
}

// QueryGrades fetches one page of the transcript. Malformed rows are
// logged and skipped, the page carries whatever parsed.
func (c *Client) QueryGrades(ctx context.Context, page, pageSize int) (GradePage, error) {
	var res struct {
		Content *struct {
			List  []json.RawMessage `json:"list"`
			Total looseInt          `json:"total"`
		} `json:"content"`
	}
	err := c.call(ctx, epGrades, gradesQuery{
		Cxbj:     "-1",
		Pylx:     "1",
		Current:  page,
		PageSize: pageSize,
	}, &res)
	if err != nil {
		return GradePage{}, err
	}
	if res.Content == nil {
		return GradePage{}, SchemaError{Endpoint: epGrades.name, Field: "content"}
	}

	grades := make([]CourseGrade, 0, len(res.Content.List))
	for _, raw := range res.Content.List {
		var row rawGrade
		err := json.Unmarshal(raw, &row)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed grade row", "err", err)
			continue
		}
		grades = append(grades, row.grade())
	}
	return GradePage{Grades: grades, Total: int(res.Content.Total)}, nil
}

// FetchAllGrades pulls the whole transcript, re-issuing the query
// with pageSize=total when the first page reports more rows.
func (c *Client) FetchAllGrades(ctx context.Context) ([]CourseGrade, error) {
	const pageSize = 100

	page, err := c.QueryGrades(ctx, 1, pageSize)
	if err != nil {
		return nil, err
	}
	if page.Total > pageSize {
		page, err = c.QueryGrades(ctx, 1, page.Total)
		if err != nil {
			return nil, err
		}
	}
	return page.Grades, nil
}

// FetchGPA reads the official GPA summary. The rank percentage is
// derived locally, the server only reports rank and cohort size.
func (c *Client) FetchGPA(ctx context.Context) (GPAInfo, error) {
	var raw struct {
		Gpa               looseFloat `json:"GPA"`
		AllCourseGpa      looseFloat `json:"GPA_QBJQKC"`
		AvgScore          looseFloat `json:"PJXFJ"`
		AllCourseAvgScore looseFloat `json:"QBKCPJXFJ"`
		Rank              looseInt   `json:"PM"`
		TotalStudents     looseInt   `json:"ZRS"`
		PassedCourses     looseInt   `json:"TGKC"`
		TotalCredits      looseFloat `json:"HDXF"`
	}
	err := c.call(ctx, epGpa, nil, &raw)
	if err != nil {
		return GPAInfo{}, err
	}

	rankPercentage := 0.0
	if raw.TotalStudents > 0 {
		rankPercentage = math.Round(float64(raw.Rank)/float64(raw.TotalStudents)*100*100) / 100
	}

	return GPAInfo{
		Gpa:               float64(raw.Gpa),
		AllCourseGpa:      float64(raw.AllCourseGpa),
		AvgScore:          float64(raw.AvgScore),
		AllCourseAvgScore: float64(raw.AllCourseAvgScore),
		Rank:              int(raw.Rank),
		TotalStudents:     int(raw.TotalStudents),
		RankPercentage:    rankPercentage,
		PassedCourses:     int(raw.PassedCourses),
		TotalCredits:      float64(raw.TotalCredits),
	}, nil
}
