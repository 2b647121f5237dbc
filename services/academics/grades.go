package academics

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	scraper "jwassist-backend/lib/scrapers/jw"
)

// Transcript bundles the full grade list with the GPA summary. GPA is
// nil when the summary endpoint failed, the grades are still usable
// without it.
type Transcript struct {
	Grades []scraper.CourseGrade `json:"grades"`
	GPA    *scraper.GPAInfo      `json:"gpa_info"`
}

// AllGrades loads the complete transcript, memoized until Refresh.
func (s *Service) AllGrades(ctx context.Context) (Transcript, error) {
	s.mu.Lock()
	cached := s.transcript
	s.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	ctx, span := tracer.Start(ctx, "AllGrades")
	defer span.End()

	grades, err := s.portal.FetchAllGrades(ctx)
	if err != nil {
		return Transcript{}, err
	}

	transcript := Transcript{Grades: grades}
	gpa, err := s.portal.FetchGPA(ctx)
	if err != nil {
		slog.WarnContext(ctx, "gpa summary unavailable, serving grades without it", "err", err)
	} else {
		transcript.GPA = &gpa
	}

	s.mu.Lock()
	s.transcript = &transcript
	s.mu.Unlock()
	return transcript, nil
}

// SemesterOption is one semester that has recorded grades.
type SemesterOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SemesterList lists the semesters present in the transcript, newest
// first.
func (s *Service) SemesterList(ctx context.Context) ([]SemesterOption, error) {
	transcript, err := s.AllGrades(ctx)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	for _, grade := range transcript.Grades {
		if _, ok := names[grade.Semester]; !ok {
			names[grade.Semester] = grade.SemesterDisplay
		}
	}

	semesters := make([]SemesterOption, 0, len(names))
	for code, name := range names {
		semesters = append(semesters, SemesterOption{Code: code, Name: name})
	}
	sort.Slice(semesters, func(i, j int) bool {
		return semesters[i].Code > semesters[j].Code
	})
	return semesters, nil
}

// GradesBySemester filters the transcript down to one semester code.
func (s *Service) GradesBySemester(ctx context.Context, semesterCode string) ([]scraper.CourseGrade, error) {
	transcript, err := s.AllGrades(ctx)
	if err != nil {
		return nil, err
	}

	grades := []scraper.CourseGrade{}
	for _, grade := range transcript.Grades {
		if grade.Semester == semesterCode {
			grades = append(grades, grade)
		}
	}
	return grades, nil
}

func yesNo(v bool) string {
	if v {
		return "是"
	}
	return "否"
}

// ExportGradesCSV writes the transcript as a spreadsheet. The output
// starts with a UTF-8 byte order mark so Excel detects the encoding.
func (s *Service) ExportGradesCSV(ctx context.Context, w io.Writer) error {
	transcript, err := s.AllGrades(ctx)
	if err != nil {
		return err
	}

	_, err = w.Write([]byte{0xEF, 0xBB, 0xBF})
	if err != nil {
		return err
	}

	out := csv.NewWriter(w)
	if gpa := transcript.GPA; gpa != nil {
		records := [][]string{
			{"GPA 统计信息"},
			{"核心课 GPA", "全部课程 GPA", "核心课平均学分绩", "全部课程平均学分绩", "排名", "总人数", "排名百分比", "通过课程数", "获得学分"},
			{
				strconv.FormatFloat(gpa.Gpa, 'f', -1, 64),
				strconv.FormatFloat(gpa.AllCourseGpa, 'f', -1, 64),
				strconv.FormatFloat(gpa.AvgScore, 'f', -1, 64),
				strconv.FormatFloat(gpa.AllCourseAvgScore, 'f', -1, 64),
				strconv.Itoa(gpa.Rank),
				strconv.Itoa(gpa.TotalStudents),
				fmt.Sprintf("%v%%", gpa.RankPercentage),
				strconv.Itoa(gpa.PassedCourses),
				strconv.FormatFloat(gpa.TotalCredits, 'f', -1, 64),
			},
			{},
		}
		err = out.WriteAll(records)
		if err != nil {
			return err
		}
	}

	err = out.Write([]string{
		"学期", "课程代码", "课程名称", "课程英文名称", "学分",
		"成绩", "原始分数", "考核方式", "课程类型", "课程类别",
		"开课院系", "是否及格", "是否重修", "排名", "总人数",
	})
	if err != nil {
		return err
	}
	for _, grade := range transcript.Grades {
		err = out.Write([]string{
			grade.SemesterDisplay,
			grade.CourseId,
			grade.CourseName,
			grade.CourseNameEn,
			strconv.FormatFloat(grade.Credit, 'f', -1, 64),
			grade.Score,
			grade.ScoreRaw,
			grade.ExamType,
			grade.CourseType,
			grade.CourseCategory,
			grade.Department,
			yesNo(grade.IsPass),
			yesNo(grade.IsRestudy),
			grade.Rank,
			grade.TotalStudents,
		})
		if err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}
