package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitsim/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulator over HTTP and websockets",
	Long: `Serve the simulator for a browser front end.

Endpoints:
  POST /api/exec    {"line": "git commit -m msg"}
  GET  /api/state   the state document
  GET  /api/layout  HEAD and commit positions
  POST /api/clear   discard the repository
  GET  /api/ws      live updates; accepts {"line": ...} frames
  GET  /healthz

Examples:
  gitsim serve
  gitsim serve --listen 0.0.0.0:8740 --token s3cret`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

var (
	serveListen string
	serveToken  string
)

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	f.StringVar(&serveToken, "token", os.Getenv("GITSIM_TOKEN"), "Bearer token required for commands (env: GITSIM_TOKEN)")
}

func runServe(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	listen := c.Config.Listen
	if serveListen != "" {
		listen = serveListen
	}

	cfg := server.DefaultConfig()
	cfg.Token = serveToken
	if wn := server.NewWebhookNotifier(c.Config.WebhookURLs, c.Logger); wn != nil {
		cfg.Webhooks = wn
		c.Logger.Info("webhooks configured", "count", len(c.Config.WebhookURLs))
	}

	h, cleanup := server.Handler(c.Interp, cfg, c.Logger)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.ListenAndServe(ctx, listen, h, c.Logger); err != nil {
		c.Logger.Error("server error", "error", err)
		cleanup()
		c.Close()
		os.Exit(1)
	}
}
