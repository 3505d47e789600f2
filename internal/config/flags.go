package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile  = flag.String("log-file", "", "Write logs to this file")
	flagEncoding = flag.String("encoding", "", "String encoding of names and paths (shift-jis, euc-jp, utf-8)")
	flagBinary   = flag.Bool("glb", false, "Export binary glTF")
	flagOutDir   = flag.String("out-dir", "", "Default export directory")
	flagPath     = flag.String("path", "", "Extra model search directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagEncoding != "" {
		cfg.Decode.StringEncoding = *flagEncoding
	}
	if *flagBinary {
		cfg.Export.Binary = true
	}
	if *flagOutDir != "" {
		cfg.Export.OutputDir = *flagOutDir
	}
	if *flagPath != "" {
		cfg.Decode.SearchPaths = append(cfg.Decode.SearchPaths, *flagPath)
	}
}
