package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agromart/app"
	"agromart/config"
	"agromart/utils"
	"agromart/views"

	"github.com/spf13/viper"
)

// open loads the configuration and builds the application for one command.
func open(ctx context.Context, v *viper.Viper, configPath string) (*app.App, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	logger := utils.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	return app.New(ctx, cfg, logger)
}

func main() {
	// cancel in-flight calls on Ctrl-C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := views.NewRootCommand(open)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, views.Error.Render(views.ErrorLine(err)))
		stop()
		os.Exit(1)
	}
}
