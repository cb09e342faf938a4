package commands

import (
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"

	"github.com/username/sbiledger/src/config"
	"github.com/username/sbiledger/src/logger"
	"github.com/username/sbiledger/src/parsers/sbi"
	"github.com/username/sbiledger/src/pdfdoc"
	"github.com/username/sbiledger/src/services"
	"github.com/username/sbiledger/src/storage"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sbiledger",
		Short: "Parse SBI bank statement PDFs into a cumulative transaction ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newImportCommand())

	return rootCmd
}

// newImportService builds the wired pipeline shared by serve and import.
// Call after config.LoadConfig.
func newImportService() services.ImportService {
	extractor := sbi.NewExtractor(pdfdoc.NewOpener())
	store := storage.NewStore(config.Cfg.LedgerPath)
	ledgerCache := cache.New(config.Cfg.CacheExpiration, config.Cfg.CacheCleanup)
	return services.NewImportService(extractor, store, config.Cfg.PDFPassword, ledgerCache, time.Now)
}

func initApp() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
}
