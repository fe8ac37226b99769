package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"feedpage/internal/feedpage"
)

func main() {
	var (
		configPath   string
		cacheDir     string
		templatePath string
		every        time.Duration
	)
	flag.StringVar(&configPath, "config", getenvDefault("FEEDPAGE_CONFIG", ""),
		"path to feedpage.yaml (default: feedpage/feedpage.yaml in your config dir)")
	flag.StringVar(&cacheDir, "cache", getenvDefault("FEEDPAGE_CACHE", ""),
		"cache directory (default: feedpage in your cache dir)")
	flag.StringVar(&templatePath, "template", "",
		"page template overriding the built-in one")
	flag.DurationVar(&every, "every", 0,
		"rerun the fetch-and-render cycle on this interval (0 runs once)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <output.html>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	outPath := flag.Arg(0)
	if outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if configPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			log.Fatalf("no default config directory: %v", err)
		}
		configPath = filepath.Join(dir, "feedpage", "feedpage.yaml")
	}
	if cacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			log.Fatalf("no default cache directory: %v", err)
		}
		cacheDir = filepath.Join(dir, "feedpage")
	}

	cfg, err := feedpage.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", configPath, err)
	}

	tmpl := feedpage.DefaultTemplate
	if templatePath != "" {
		b, err := os.ReadFile(templatePath)
		if err != nil {
			log.Fatalf("read template: %v", err)
		}
		tmpl = string(b)
	}

	svc := feedpage.NewService(cfg, cacheDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runOnce := func() {
		svc.RunTick(ctx)
		if err := svc.WritePage(outPath, tmpl); err != nil {
			log.Fatalf("write page: %v", err)
		}
	}

	runOnce()
	if every <= 0 {
		return
	}

	log.Printf("rerunning every %s", every)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			runOnce()
		}
	}
}

func getenvDefault(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}
