package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(semestersCmd)
}

var semestersCmd = &cobra.Command{
	Use:   "semesters",
	Short: "Lists every semester the portal knows about and marks the current one.",
	Run: func(cmd *cobra.Command, args []string) {
		current, err := service.CurrentSemester(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		semesters, err := service.Semesters(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Year", "Semester", "Name", ""})
		for _, semester := range semesters {
			marker := ""
			if semester.AcademicYear == current.AcademicYear && semester.SemesterCode == current.SemesterCode {
				marker = "current"
			}
			name := semester.SemesterName
			if semester.SemesterNameEn != "" {
				name = fmt.Sprintf("%s (%s)", semester.SemesterName, semester.SemesterNameEn)
			}
			t.AppendRow(table.Row{semester.AcademicYear, semester.SemesterCode, name, marker})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
