package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edittrail/edittrail/internal/bridge"
	"github.com/edittrail/edittrail/internal/engine"
	"github.com/edittrail/edittrail/internal/track"
)

var bridgeAddr string

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve the WebSocket endpoint editor plugins report edits to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := resolveWorkDir(nil)
		if err != nil {
			return err
		}
		logger := newLogger()

		// The server mirrors documents for the engine's flush-time reads, and
		// the engine consumes the server's edit spans. The late-bound sink
		// breaks the construction cycle: no event arrives before ListenAndServe.
		var eng *engine.Engine
		srv, err := bridge.NewServer(editSinkFunc(func(file string, docLines int, spans ...track.Span) {
			eng.ApplyEdit(file, docLines, spans...)
		}), logger)
		if err != nil {
			return err
		}
		eng, err = newEngine(workDir, logger, srv)
		if err != nil {
			return err
		}

		addr := cfg.BridgeAddr
		if bridgeAddr != "" {
			addr = bridgeAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 2)
		go func() { errCh <- srv.ListenAndServe(ctx, addr) }()
		go func() { errCh <- eng.Run(ctx) }()

		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		}
	},
}

// editSinkFunc adapts a function to host.EditSink.
type editSinkFunc func(file string, docLines int, spans ...track.Span)

func (f editSinkFunc) ApplyEdit(file string, docLines int, spans ...track.Span) {
	f(file, docLines, spans...)
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(bridgeCmd)
}
