package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SaiNageswarS/employee-desk/appconfig"
	askcmder "github.com/SaiNageswarS/employee-desk/cmd/ask"
	servecmder "github.com/SaiNageswarS/employee-desk/cmd/serve"
	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	// load config file
	ccfgg := &appconfig.AppConfig{}
	err := config.LoadConfig("config.ini", ccfgg)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	root := &cobra.Command{
		Use:           "employee-desk",
		Short:         "Retrieval-augmented HR assistant for employees",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(servecmder.NewServeCmd(ccfgg))
	root.AddCommand(askcmder.NewAskCmd(ccfgg))

	if err := root.ExecuteContext(getCancellableContext()); err != nil {
		logger.Fatal("Command failed", zap.Error(err))
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
