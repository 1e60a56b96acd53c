package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagSaveConfig = flag.String("save-config", "", "Write the effective config to this path and exit")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile    = flag.String("log-file", "", "Also log to this file")
	flagPopup      = flag.Bool("popup", false, "Show errors in message boxes")
	flagWatch      = flag.Bool("watch", false, "Reconvert inputs when they change")
	flagEncoding   = flag.String("encoding", "", "Text encoding of OBJ and MTL files")
	flagDedup      = flag.String("dedup", "", "Vertex dedup mode: exact or similar")
	flagTolerance  = flag.Float64("tolerance", -1, "Similar dedup tolerance")
	flagNoTangents = flag.Bool("no-tangents", false, "Do not synthesize tangents")
	flagPosition   = flag.String("position", "", "Position storage type")
	flagTexcoord   = flag.String("texcoord", "", "Texture coordinate storage type")
	flagNormal     = flag.String("normal", "", "Normal storage type")
	flagTangent    = flag.String("tangent", "", "Tangent storage type")
	flagChannels   = flag.Int("channels", 0, "Texture channels (0 detects)")
	flagBytes      = flag.Int("bytes", 0, "Texture bytes per channel (0 detects)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveConfigPath returns the path given with --save-config.
func SaveConfigPath() string {
	return *flagSaveConfig
}

// Args returns the input files named on the command line.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagPopup {
		cfg.Report.Popup = true
	}
	if *flagWatch {
		cfg.Report.Watch = true
	}
	if *flagEncoding != "" {
		cfg.Input.Encoding = *flagEncoding
	}
	if *flagDedup != "" {
		cfg.Dedup.Mode = *flagDedup
	}
	if *flagTolerance >= 0 {
		cfg.Dedup.Tolerance = float32(*flagTolerance)
	}
	if *flagNoTangents {
		cfg.Geometry.Tangents = false
	}
	for _, o := range []struct {
		flag *string
		dst  *string
	}{
		{flagPosition, &cfg.Geometry.Position},
		{flagTexcoord, &cfg.Geometry.Texcoord},
		{flagNormal, &cfg.Geometry.Normal},
		{flagTangent, &cfg.Geometry.Tangent},
	} {
		if *o.flag != "" {
			*o.dst = *o.flag
		}
	}
	if *flagChannels > 0 {
		cfg.Texture.Channels = *flagChannels
	}
	if *flagBytes > 0 {
		cfg.Texture.Bytes = *flagBytes
	}
}
