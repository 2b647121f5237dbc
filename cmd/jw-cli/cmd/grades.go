package cmd

import (
	"log"
	"os"

	scraper "jwassist-backend/lib/scrapers/jw"
	"jwassist-backend/services/academics"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var gradesSemester string

func init() {
	gradesCmd.Flags().StringVarP(&gradesSemester, "semester", "s", "", "only show one semester, e.g. 2024-20251")
	rootCmd.AddCommand(gradesCmd)
}

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Prints the grade transcript.",
	Run: func(cmd *cobra.Command, args []string) {
		var grades []scraper.CourseGrade
		var err error
		if gradesSemester != "" {
			grades, err = service.GradesBySemester(cmd.Context(), gradesSemester)
		} else {
			var transcript academics.Transcript
			transcript, err = service.AllGrades(cmd.Context())
			grades = transcript.Grades
		}
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Semester", "Course", "Name", "Credit", "Score", "Pass"})
		for _, grade := range grades {
			pass := "yes"
			if !grade.IsPass {
				pass = "NO"
			}
			t.AppendRow(table.Row{
				grade.SemesterDisplay,
				grade.CourseId,
				grade.CourseName,
				grade.Credit,
				grade.Score,
				pass,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
