package cmd

import (
	"context"
	"fmt"
	"os"

	"jwassist-backend/lib/configutil"
	"jwassist-backend/lib/scrapers/jw"
	"jwassist-backend/lib/scrapers/jw/core"
	"jwassist-backend/lib/telemetry"
	"jwassist-backend/services/academics"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config points the CLI at a different identity provider or portal,
// mostly useful against a staging mirror. Both default to the
// production campus hosts when the file is absent.
type Config struct {
	IdpUrl    string `json:"idp_url"`
	PortalUrl string `json:"portal_url"`
}

var verbose bool

var service *academics.Service

var rootCmd = &cobra.Command{
	Use:   "jw-cli",
	Short: "jw-cli queries the campus academic affairs portal: grades, GPA, classrooms and the academic calendar.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setup(ctx context.Context) error {
	telemetry.InitSlog(verbose)

	// telemetry is optional for a CLI, a telemetry.json5 up the tree
	// turns on exporters and the perf stats loop
	err := telemetry.SetupFromEnv(ctx, "jw-cli")
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err == nil {
		telemetry.InstrumentPerfStats(ctx)
	}

	// credentials come from the environment or a .env next to the
	// working directory, never from flags
	godotenv.Load()
	username := os.Getenv("JW_USERNAME")
	password := os.Getenv("JW_PASSWORD")
	if username == "" || password == "" {
		return fmt.Errorf("JW_USERNAME and JW_PASSWORD must be set in the environment or a .env file")
	}

	config, err := configutil.ReadRecursively[Config]("jw-cli.json5")
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	coreClient, err := core.NewClient(core.ClientOptions{
		IdpUrl:    config.IdpUrl,
		PortalUrl: config.PortalUrl,
	})
	if err != nil {
		return err
	}

	service = academics.New(jw.NewClient(coreClient, username, password))
	return nil
}

func Execute() {
	err := rootCmd.Execute()
	telemetry.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
