package cmd

import (
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(buildingsCmd)
}

var buildingsCmd = &cobra.Command{
	Use:   "buildings",
	Short: "Lists the teaching buildings of the room booking module.",
	Run: func(cmd *cobra.Command, args []string) {
		buildings, err := service.Buildings(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Code", "Name", "English name"})
		for _, building := range buildings {
			t.AppendRow(table.Row{building.Code, building.Name, building.NameEn})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
