package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/stellarlinkco/model-eval/api"
	"github.com/stellarlinkco/model-eval/internal/config"
	"github.com/stellarlinkco/model-eval/internal/embedding"
	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/store"
)

// serverStore is what runMain needs from storage: the API surface plus
// shutdown.
type serverStore interface {
	api.RunStore
	Close() error
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig = config.Load
	openStore  = func(cfg config.StorageConfig) (serverStore, error) {
		return store.Open(cfg)
	}
	newRegistryFromConfig = llm.NewRegistryFromConfig
	newEmbedder           = func(cfg *config.Config) (embedding.Embedder, error) {
		return embedding.FromConfig(cfg)
	}
	newServer = api.NewServer
	runServer = (*api.Server).Run
)

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)

	var addr string
	var configPath string
	fs.StringVar(&addr, "addr", ":8080", "listen address")
	fs.StringVar(&configPath, "config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	st, err := openStore(cfg.Storage)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	defer func() { _ = st.Close() }()

	providers, err := newRegistryFromConfig(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	srv, err := newServer(cfg, st, providers, embedder)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	if err := runServer(srv, addr); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	return 0
}
