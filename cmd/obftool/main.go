// obftool is a CLI utility for inspecting and converting OBF model files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/desco/internal/assets"
	"github.com/Faultbox/desco/internal/config"
	"github.com/Faultbox/desco/internal/logger"
	"github.com/Faultbox/desco/pkg/encoding"
	"github.com/Faultbox/desco/pkg/obf"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app, err := newApp(cfg, logger.Log)
	if err != nil {
		logger.Log.Error("startup failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer app.assets.Close()

	command := args[0]
	rest := args[1:]

	switch command {
	case "info":
		err = app.cmdInfo(rest)
	case "dump":
		err = app.cmdDump(rest)
	case "meshes", "ls":
		err = app.cmdMeshes(rest)
	case "export", "x":
		err = app.cmdExport(rest)
	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = app.cmdWatch(ctx, rest)
		stop()
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Log.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`obftool - OBF model utility

Usage:
  obftool [flags] <command> [options]

Commands:
  info <file.obf>                    Show header and totals
  dump <file.obf>                    Dump the decoded node tree
  meshes <file.obf>                  List meshes by node/group/primitive
  export <file.obf> [out.gltf|.glb]  Convert to glTF 2.0
  watch <file.obf>                   Reload and re-render on change

Flags:
  -config <path>    Config file (default ./obftool.yaml)
  -debug            Debug logging
  -log-file <path>  Also log to a rotating file
  -encoding <name>  Name/path encoding: shift-jis, euc-jp, utf-8
  -glb              Export binary glTF
  -out-dir <dir>    Export directory when no output path is given
  -path <dir>       Extra directory to search for model names

Examples:
  obftool info pc001.obf
  obftool -glb export pc001.obf
  obftool -encoding utf-8 dump pc001.obf`)
}

type app struct {
	cfg    *config.Config
	log    *zap.Logger
	assets *assets.Manager
	out    io.Writer
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, out: os.Stdout}
	opts, err := a.decodeOptions()
	if err != nil {
		return nil, err
	}
	a.assets = assets.NewManager(log.Named("assets"), opts...)
	for _, dir := range cfg.Decode.SearchPaths {
		if err := a.assets.AddRoot(dir); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// decodeOptions maps config onto obf load options.
func (a *app) decodeOptions() ([]obf.Option, error) {
	dec, err := encoding.Decoder(a.cfg.Decode.StringEncoding)
	if err != nil {
		return nil, err
	}
	return []obf.Option{
		obf.WithLogger(a.log.Named("obf")),
		obf.WithStringDecoder(dec),
		obf.WithMaxElements(a.cfg.Decode.MaxElements),
	}, nil
}

func (a *app) load(name string) (*obf.Document, error) {
	return a.assets.Load(name)
}
