// Code follows the goctl-scaffolded entrypoint shape: load config,
// build the rest.Server, wire the ServiceContext, register handlers,
// start serving — with the position monitor's background loop added
// and shut down the way cmd/cron/main.go shuts down its tasks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/rest"

	"tradesmart-api/internal/cli"
	"tradesmart-api/internal/config"
	"tradesmart-api/internal/handler"
	"tradesmart-api/internal/svc"
)

const shutdownTimeout = 10 * time.Second

var configFile = flag.String("f", "etc/tradesmart.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg)
	defer ctx.Close()

	handler.RegisterErrorHandler()
	handler.RegisterHandlers(server, ctx)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.PaperTrading.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.Monitor.Run(runCtx)
		}()
	} else {
		log.Println("paper trading disabled, position monitor not started")
	}

	go func() {
		fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
		server.Start()
	}()

	<-runCtx.Done()
	log.Println("shutdown signal received, stopping position monitor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("position monitor stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("shutdown timeout exceeded, forcing exit")
	}
}
