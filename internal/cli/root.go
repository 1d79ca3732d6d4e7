package cli

import (
	"log"

	"github.com/spf13/cobra"

	"render-queue/internal/config"
	"render-queue/internal/domain"
)

var rootCmd = &cobra.Command{
	Use:   "render-queue",
	Short: "Batch render Blender scene files from the command line",
}

// Execute runs the headless CLI.
func Execute() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadSettings reads persisted settings from the default store location.
func loadSettings() (domain.Settings, error) {
	storePath, err := config.DefaultStorePath()
	if err != nil {
		return domain.Settings{}, err
	}
	return config.NewJSONStore(storePath).Load()
}
