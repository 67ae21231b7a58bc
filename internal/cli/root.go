// Package cli is the operator command line: it serves the HTTP surface and
// runs card store operations directly against the document and upload
// directory.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"cardshare/internal/config"
	applog "cardshare/internal/log"
	"cardshare/internal/media"
	"cardshare/internal/repos"
	"cardshare/internal/services"
)

type app struct {
	cfg    config.Config
	cards  *repos.CardRepo
	assets *media.Store
	ingest *services.IngestService
	share  *services.ShareService

	cardsFile string
	uploadDir string
	logOut    io.Writer
}

// NewRootCmd returns the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logOut: os.Stderr}

	root := &cobra.Command{
		Use:   "cardshare",
		Short: "Publish cards and share them by link",
		Long: "cardshare keeps published cards in a single JSON document, stores their\n" +
			"images in a flat upload directory and serves public share pages.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.cardsFile, "cards-file", "", "card store document (overrides CARDS_FILE)")
	root.PersistentFlags().StringVar(&a.uploadDir, "upload-dir", "", "upload directory (overrides UPLOAD_DIR)")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newShareCmd(a),
		newExportCmd(a),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup() error {
	a.cfg = config.Load()
	if a.cardsFile != "" {
		a.cfg.CardsFile = a.cardsFile
	}
	if a.uploadDir != "" {
		a.cfg.UploadDir = a.uploadDir
	}
	applog.Configure(a.cfg.LogLevel, a.logOut)

	cards, err := repos.OpenCardRepo(a.cfg.CardsFile)
	if err != nil {
		return err
	}
	a.cards = cards
	a.assets = media.NewStore(a.cfg.UploadDir, a.cfg.UploadURLPrefix, a.cfg.MaxUploadBytes)
	a.ingest = services.NewIngestService(a.cards, a.assets)
	a.share = services.NewShareService(a.cards)
	return nil
}
