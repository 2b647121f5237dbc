package cmd

import (
	"fmt"
	"log"
	"time"

	"jwassist-backend/lib/timezone"

	"github.com/spf13/cobra"
)

var (
	calendarYear     string
	calendarSemester string
)

func init() {
	calendarCmd.PersistentFlags().StringVar(&calendarYear, "year", "", "academic year, e.g. 2024-2025 (default: current)")
	calendarCmd.PersistentFlags().StringVar(&calendarSemester, "semester", "", "semester code, e.g. 2 (default: current)")
	calendarCmd.AddCommand(firstDayCmd)
	calendarCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(calendarCmd)
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Academic calendar arithmetic.",
}

var firstDayCmd = &cobra.Command{
	Use:   "first-day",
	Short: "Prints the first day of the semester.",
	Run: func(cmd *cobra.Command, args []string) {
		firstDay, err := service.SemesterFirstDay(cmd.Context(), calendarYear, calendarSemester)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(firstDay.Format("2006-01-02"))
	},
}

var weekCmd = &cobra.Command{
	Use:   "week [date]",
	Short: "Prints the teaching week and weekday of a date, today by default.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date := timezone.Now()
		if len(args) == 1 {
			var err error
			date, err = time.ParseInLocation("2006-01-02", args[0], timezone.Location)
			if err != nil {
				log.Fatal(err)
			}
		}

		info, err := service.WeekAndWeekday(cmd.Context(), date, calendarYear, calendarSemester)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s is week %d, weekday %d\n", info.Date.Format("2006-01-02"), info.Week, info.Weekday)
	},
}
