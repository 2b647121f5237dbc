package cmd

import (
	"log"
	"os"

	"jwassist-backend/services/academics"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	roomsYear     string
	roomsSemester string
	roomsWeeks    string
	roomsWeekday  int
	roomsPeriod   int
	roomsMinSeats int
	roomsNoCache  bool
)

func init() {
	roomsCmd.Flags().StringVar(&roomsYear, "year", "", "academic year, e.g. 2024-2025 (default: current)")
	roomsCmd.Flags().StringVar(&roomsSemester, "semester", "", "semester code, e.g. 2 (default: current)")
	roomsCmd.Flags().StringVarP(&roomsWeeks, "weeks", "w", "", "weeks to query, e.g. 3-5,8 (required)")
	roomsCmd.Flags().IntVar(&roomsWeekday, "weekday", 0, "only rooms free on this weekday, 1=Monday")
	roomsCmd.Flags().IntVar(&roomsPeriod, "period", 0, "only rooms free in this period")
	roomsCmd.Flags().IntVar(&roomsMinSeats, "min-seats", 0, "only rooms with at least this many seats")
	roomsCmd.Flags().BoolVar(&roomsNoCache, "no-cache", false, "bypass the availability cache")
	roomsCmd.MarkFlagRequired("weeks")
	rootCmd.AddCommand(roomsCmd)
}

var roomsCmd = &cobra.Command{
	Use:   "rooms <building code>",
	Short: "Finds available classrooms in a teaching building.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rooms, err := service.AvailableClassrooms(cmd.Context(), academics.AvailabilityQuery{
			AcademicYear: roomsYear,
			SemesterCode: roomsSemester,
			BuildingCode: args[0],
			WeekSpec:     roomsWeeks,
			NoCache:      roomsNoCache,
		}, academics.RoomFilter{
			Weekday:  roomsWeekday,
			Period:   roomsPeriod,
			MinSeats: roomsMinSeats,
		})
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Room", "Seats", "Tiered", "Movable seats"})
		for _, room := range rooms {
			t.AppendRow(table.Row{room.Name, room.Seats, room.Tiered, room.MovableSeats})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
