package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "grades.csv", "path of the csv file to write")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exports the grade transcript to a CSV file.",
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Create(exportOutput)
		if err != nil {
			log.Fatal(err)
		}
		defer file.Close()

		err = service.ExportGradesCSV(cmd.Context(), file)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("exported transcript to", exportOutput)
	},
}
