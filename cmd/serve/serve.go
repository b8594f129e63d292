package servecmder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/SaiNageswarS/employee-desk/app"
	"github.com/SaiNageswarS/employee-desk/appconfig"
	"github.com/SaiNageswarS/employee-desk/httpapi"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const serveLongDesc string = `Run the employee desk HTTP server.

Routes:
  POST /employeedesk/chat   answer a chat message
  GET  /v1/status           liveness
  GET  /metrics             prometheus metrics`

const serveShortDesc string = "Run the employee desk HTTP server"

const shutdownGrace = 10 * time.Second

type serveCommander struct {
	addr string
}

func NewServeCmd(cfg *appconfig.AppConfig) *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cmder.addr, "addr", "", "Listen address (defaults to http_addr or :8080)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *appconfig.AppConfig) error {
	if c.addr != "" {
		cfg.HTTPAddr = c.addr
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.New(a.Desk, a.Metrics, cfg.RequestTimeout()).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Employee desk listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	logger.Info("Shutting down employee desk")
	return srv.Shutdown(shutdownCtx)
}
