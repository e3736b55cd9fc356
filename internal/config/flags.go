package config

import "flag"

// Flags holds command-line overrides shared by every subcommand.
type Flags struct {
	Config  string
	Debug   bool
	LogFile string
	Workers int
	Channel string
	Size    int
	NoWatch bool
}

// RegisterFlags binds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log", "", "Write logs to this file")
	fs.IntVar(&f.Workers, "workers", 0, "Mesh decode workers (0 = config)")
	fs.StringVar(&f.Channel, "channel", "", "UV channel: texcoord, lightmap or none")
	fs.IntVar(&f.Size, "size", 0, "Preview size in pixels")
	fs.BoolVar(&f.NoWatch, "no-watch", false, "Do not watch asset files for changes")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Workers > 0 {
		cfg.Cache.Workers = f.Workers
	}
	if f.Channel != "" {
		cfg.Preview.Channel = f.Channel
	}
	if f.Size > 0 {
		cfg.Preview.Size = f.Size
	}
	if f.NoWatch {
		cfg.Watch.Enabled = false
	}
}
