// Package main starts the sitegate edge service.
//
// This process routes locale-prefixed requests, serves robots.txt and the
// sitemap, and fronts the statically built site content.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	sitegatecmd "github.com/louisbranch/sitegate/internal/cmd/sitegate"
)

func main() {
	cfg, err := sitegatecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SITEGATE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sitegatecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
