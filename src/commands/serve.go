package commands

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/username/sbiledger/src/config"
	"github.com/username/sbiledger/src/handlers"
	"github.com/username/sbiledger/src/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the statement parser HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			initApp()

			service := newImportService()
			router := handlers.NewRouter(service)

			server := &http.Server{
				Addr:         ":" + config.Cfg.Port,
				Handler:      router,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			logger.L.Info("SBI statement parser API starting", "port", config.Cfg.Port, "ledger", config.Cfg.LedgerPath)
			return server.ListenAndServe()
		},
	}
}
