package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scanforge/scanforge/internal/api"
	"github.com/scanforge/scanforge/pkg/shared/config"
	"github.com/scanforge/scanforge/pkg/shared/logger"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "server",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Run the scanforge HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateExecutor(&AppConfig.Executor); err != nil {
				return err
			}

			log := logger.NewLogger(AppConfig, "core")

			server, err := api.NewServer(AppConfig, log)
			if err != nil {
				return err
			}
			return server.ListenAndServe()
		},
	}
}

func init() {
	rootCmd.AddCommand(newServerCmd())
}
