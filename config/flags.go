package config

import "flag"

// Flags command line options shared by every command.
type Flags struct {
	Path  string
	Debug bool
}

// Register adds the shared options to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Path, "config", "", "path to yaml config")
	fs.BoolVar(&f.Debug, "debug", false, "enable development logging")
}

// Load reads the config selected by the flags.
func (f *Flags) Load() (Config, error) {
	return Load(f.Path)
}
