package cli

import (
	"os"

	"purchase-patterns/internal/util"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "patternctl",
	Short: "Offline purchase pattern analysis",
	Long: `patternctl runs the usual basket and reorder cycle engines over a purchase
history exported as JSON, without Postgres, Redis, Kafka or Neo4j.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return util.InitLogger("development", logLevel)
	},
}

// Execute runs the root command
func Execute() {
	defer util.SyncLogger()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
}
