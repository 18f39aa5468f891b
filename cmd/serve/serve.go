// Package serve implements the serve command.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fjacquet/statement-insights/cmd/root"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/server"
	"fjacquet/statement-insights/internal/uploadstore"

	"github.com/spf13/cobra"
)

const (
	sweepInterval = 10 * time.Minute
	uploadMaxAge  = time.Hour
)

var address string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload and analysis API",
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVar(&address, "addr", "", "Listen address (overrides server.address)")
}

func run(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	addr := c.GetConfig().Server.Address
	if address != "" {
		addr = address
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepUploads(ctx, c.GetUploadStore(), c.GetLogger())

	return server.NewFromContainer(c).Run(ctx, addr)
}

// sweepUploads removes stored uploads that were never processed.
func sweepUploads(ctx context.Context, store *uploadstore.Store, logger logging.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		if n, err := store.Sweep(uploadMaxAge); err != nil {
			logger.WithError(err).Warn("Failed to sweep stale uploads")
		} else if n > 0 {
			logger.Info("Removed stale uploads", logging.F(logging.FieldCount, n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
