package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ndbelov/stockwear/config"
	"github.com/ndbelov/stockwear/internal/app"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := signalContext()
	defer closeApp()

	_ = godotenv.Load()
	cfg := config.Load()
	cfg.Print()

	editorService := app.New(sigCtx, cfg)

	editorService.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	editorService.Close(ctx)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
