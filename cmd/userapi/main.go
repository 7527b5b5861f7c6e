package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akave-ai/userapi/internal/app"
	"github.com/akave-ai/userapi/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := app.Main(ctx, app.Options{ConfigFiles: config.DefaultFiles()})

	stop()
	os.Exit(code)
}
