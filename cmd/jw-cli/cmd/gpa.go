package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(gpaCmd)
}

var gpaCmd = &cobra.Command{
	Use:   "gpa",
	Short: "Prints the GPA summary.",
	Run: func(cmd *cobra.Command, args []string) {
		transcript, err := service.AllGrades(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		if transcript.GPA == nil {
			log.Fatal("no GPA summary available")
		}

		gpa := transcript.GPA
		fmt.Printf("GPA (core):        %.2f\n", gpa.Gpa)
		fmt.Printf("GPA (all courses): %.2f\n", gpa.AllCourseGpa)
		fmt.Printf("Average score:     %.2f\n", gpa.AvgScore)
		fmt.Printf("Rank:              %d/%d (top %.2f%%)\n", gpa.Rank, gpa.TotalStudents, gpa.RankPercentage)
		fmt.Printf("Passed courses:    %d\n", gpa.PassedCourses)
		fmt.Printf("Earned credits:    %.1f\n", gpa.TotalCredits)
	},
}
