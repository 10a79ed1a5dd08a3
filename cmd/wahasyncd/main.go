package main

import (
	"flag"

	"github.com/Welt-Agency/waha-frontend/internal/daemon"
	"github.com/Welt-Agency/waha-frontend/internal/paths"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default: state dir config.toml)")
	flag.Parse()

	// A .env next to the binary is convenient in development; absence
	// is fine.
	_ = godotenv.Load()

	configPath := *configFlag
	if configPath == "" {
		configPath = paths.ConfigPath(paths.BaseDir())
	}

	app := fx.New(
		daemon.Module(daemon.Params{ConfigPath: configPath}),
	)

	app.Run()
}
