package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

var version = fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH)

var exampleUsage = strings.TrimSpace(`
  polyskema validate --schema shapes.yaml data.json more.yaml
  cat batch.json | polyskema load --schema shapes.toml
  polyskema schema --schema shapes.yaml > shapes.schema.json
  polyskema validate --schema shapes.yaml --watch data.json
`)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout)
	if err := a.root().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errInvalid) {
			a.log.Error().Err(err).Msg("polyskema")
		}
		os.Exit(1)
	}
}
