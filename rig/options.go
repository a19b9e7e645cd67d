package rig

// Options configures a Rig.
type Options struct {
	LogStats  bool   // log commit stats windows via slog
	OutputDir string // CSV output directory (empty = disabled)
	ViewsPath string // named views YAML file (empty = not persisted)
}
