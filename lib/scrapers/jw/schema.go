package jw

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The portal serializes most scalars as strings but occasionally as
// numbers or null, depending on the backing report. The loose types
// centralize that tolerance so each endpoint schema can declare the
// shape it wants and fall back to zero values instead of scattering
// ad-hoc conversions.

type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		err := json.Unmarshal(data, &str)
		if err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	*s = looseString(data)
	return nil
}

type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	var raw looseString
	err := raw.UnmarshalJSON(data)
	if err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		*f = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = looseFloat(parsed)
	return nil
}

type looseInt int

func (i *looseInt) UnmarshalJSON(data []byte) error {
	var f looseFloat
	err := f.UnmarshalJSON(data)
	if err != nil {
		return err
	}
	*i = looseInt(f)
	return nil
}

type CourseGrade struct {
	CourseId        string  `json:"course_id"`
	CourseName      string  `json:"course_name"`
	CourseNameEn    string  `json:"course_name_en"`
	Credit          float64 `json:"credit"`
	Semester        string  `json:"semester"`
	SemesterDisplay string  `json:"semester_display"`
	Score           string  `json:"score"`
	ScoreRaw        string  `json:"score_raw"`
	ExamType        string  `json:"exam_type"`
	CourseType      string  `json:"course_type"`
	CourseCategory  string  `json:"course_category"`
	Department      string  `json:"department"`
	IsPass          bool    `json:"is_pass"`
	IsRestudy       bool    `json:"is_restudy"`
	Rank            string  `json:"rank"`
	TotalStudents   string  `json:"total_students"`
}

type rawGrade struct {
	CourseId        looseString `json:"kcdm"`
	CourseName      looseString `json:"kcmc"`
	CourseNameEn    looseString `json:"kcmc_en"`
	Credit          looseFloat  `json:"xf"`
	Semester        looseString `json:"xnxq"`
	SemesterDisplay looseString `json:"xnxqmc"`
	Score           looseString `json:"zzcj"`
	ScoreRaw        looseString `json:"zzzscj"`
	ExamType        looseString `json:"khfs"`
	CourseType      looseString `json:"kcxz"`
	CourseCategory  looseString `json:"kclb"`
	Department      looseString `json:"yxmc"`
	Failed          looseString `json:"sfjg"`
	Restudy         looseString `json:"sfyfx"`
	Rank            looseString `json:"pm"`
	TotalStudents   looseString `json:"zrs"`
}

func (r rawGrade) grade() CourseGrade {
	return CourseGrade{
		CourseId:        string(r.CourseId),
		CourseName:      string(r.CourseName),
		CourseNameEn:    string(r.CourseNameEn),
		Credit:          float64(r.Credit),
		Semester:        string(r.Semester),
		SemesterDisplay: string(r.SemesterDisplay),
		Score:           string(r.Score),
		ScoreRaw:        string(r.ScoreRaw),
		ExamType:        string(r.ExamType),
		CourseType:      string(r.CourseType),
		CourseCategory:  string(r.CourseCategory),
		Department:      string(r.Department),
		// sfjg is a failure flag: "0" means passed
		IsPass:        r.Failed == "0",
		IsRestudy:     r.Restudy == "1",
		Rank:          string(r.Rank),
		TotalStudents: string(r.TotalStudents),
	}
}

type GPAInfo struct {
	Gpa               float64 `json:"gpa"`
	AllCourseGpa      float64 `json:"all_course_gpa"`
	AvgScore          float64 `json:"avg_score"`
	AllCourseAvgScore float64 `json:"all_course_avg_score"`
	Rank              int     `json:"rank"`
	TotalStudents     int     `json:"total_students"`
	RankPercentage    float64 `json:"rank_percentage"`
	PassedCourses     int     `json:"passed_courses"`
	TotalCredits      float64 `json:"total_credits"`
}

type SemesterInfo struct {
	AcademicYear   string `json:"academic_year"`
	SemesterCode   string `json:"semester_code"`
	YearName       string `json:"year_name"`
	SemesterName   string `json:"semester_name"`
	YearNameEn     string `json:"year_name_en"`
	SemesterNameEn string `json:"semester_name_en"`
}

type CurrentSemester struct {
	AcademicYear string `json:"academic_year"`
	FullCode     string `json:"semester_full_code"`
	SemesterCode string `json:"semester_code"`
}

type Building struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	NameEn string `json:"name_en"`
}

type Classroom struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	NameEn       string `json:"name_en"`
	Seats        int    `json:"seats"`
	Borrowable   bool   `json:"is_available"`
	MovableSeats bool   `json:"is_movable_seats"`
	Tiered       bool   `json:"is_tiered"`
	RowId        int    `json:"row_id"`
}

type rawClassroom struct {
	Name         looseString `json:"MC"`
	Code         looseString `json:"DM"`
	NameEn       looseString `json:"MC_EN"`
	Seats        looseInt    `json:"ZWS"`
	Borrowable   looseString `json:"SFKJ"`
	MovableSeats looseString `json:"ZYSFKYD"`
	Tiered       looseString `json:"SFJTJS"`
	RowId        looseInt    `json:"ROW_ID"`
}

func (r rawClassroom) classroom() Classroom {
	return Classroom{
		Name:         string(r.Name),
		Code:         string(r.Code),
		NameEn:       string(r.NameEn),
		Seats:        int(r.Seats),
		Borrowable:   r.Borrowable == "1",
		MovableSeats: r.MovableSeats == "1",
		Tiered:       r.Tiered == "1",
		RowId:        int(r.RowId),
	}
}

type Occupancy struct {
	ClassroomCode string `json:"classroom_code"`
	Weekday       int    `json:"weekday"`
	Period        int    `json:"period"`
	Reason        string `json:"reason"`
}

type rawOccupancy struct {
	ClassroomCode looseString `json:"CDDM"`
	Weekday       looseInt    `json:"XQJ"`
	Period        looseInt    `json:"XJ"`
	Reason        looseString `json:"PKBJ"`
}

func (r rawOccupancy) occupancy() Occupancy {
	return Occupancy{
		ClassroomCode: string(r.ClassroomCode),
		Weekday:       int(r.Weekday),
		Period:        int(r.Period),
		Reason:        string(r.Reason),
	}
}
