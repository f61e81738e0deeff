package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/claude/wodscribe/internal/config"
	"github.com/claude/wodscribe/internal/logging"
	"github.com/claude/wodscribe/internal/mcp"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local database mode)")
	serverURL := flag.String("server", "", "wodscribe server URL (remote mode)")
	lexiconPath := flag.String("lexicon", "", "lexicon file (remote mode; default is the built-in lexicon)")
	flag.Parse()

	if (*configPath == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: wodscribe-mcp -config config.yaml | -server <URL>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to stderr.
	var (
		ds     mcp.DataSource
		parser *parse.Parser
	)
	logCfg := config.LogConfig{Format: "text"}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		logCfg = cfg.Log
		log := logging.New(os.Stderr, logCfg)

		parser, err = cfg.Parser.NewParser()
		if err != nil {
			log.Error("failed to build parser", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN(), storage.WithMaxConns(cfg.Database.MaxConns))
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
	} else {
		var err error
		parser, err = config.ParserConfig{LexiconPath: *lexiconPath}.NewParser()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build parser: %v\n", err)
			os.Exit(1)
		}
		ds = mcp.NewHTTPClient(*serverURL)
	}

	log := logging.New(os.Stderr, logCfg)
	log.Info("wodscribe-mcp starting", "version", Version, "remote", *serverURL != "")

	if err := mcpserver.ServeStdio(mcp.New(ds, parser, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
