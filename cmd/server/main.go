package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/nappernick/mcp-wrapper/config"
	"github.com/nappernick/mcp-wrapper/pkg/jsonrpc"
	"github.com/nappernick/mcp-wrapper/server/api"
	"github.com/nappernick/mcp-wrapper/server/stdio"

	"github.com/go-chi/chi/v5"
)

func main() {
	configFlag := flag.String("config", "config.yaml", "configuration file")
	addrFlag := flag.String("addr", "", "listen address (overrides config)")
	stdioFlag := flag.Bool("stdio", false, "serve JSON-RPC over stdin/stdout")

	flag.Parse()

	// stdout is the protocol channel in stdio mode; logs go to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Parse(*configFlag)

	if err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}

	options := []jsonrpc.Option{
		jsonrpc.WithTools(cfg.Tools...),
		jsonrpc.WithMaxRounds(cfg.MaxRounds),
		jsonrpc.WithLogger(logger),
	}

	if cfg.Resources != nil {
		options = append(options, jsonrpc.WithResources(cfg.Resources))
	}

	dispatcher, err := jsonrpc.New(cfg.Completer, options...)

	if err != nil {
		logger.Error("create dispatcher", "error", err)
		os.Exit(1)
	}

	if *stdioFlag {
		server := stdio.New(dispatcher,
			stdio.WithStreams(os.Stdin, os.Stdout),
			stdio.WithLogger(logger),
		)

		if err := server.Serve(context.Background()); err != nil {
			logger.Error("serve stdio", "error", err)
			os.Exit(1)
		}

		return
	}

	handler, err := api.New(dispatcher)

	if err != nil {
		logger.Error("create handler", "error", err)
		os.Exit(1)
	}

	address := cfg.Address

	if *addrFlag != "" {
		address = *addrFlag
	}

	r := chi.NewRouter()
	handler.Attach(r)

	logger.Info("listening", "address", address)

	if err := http.ListenAndServe(address, r); err != nil {
		logger.Error("serve http", "error", err)
		os.Exit(1)
	}
}
