package config

const (
	defaultDataDir            = "~/.local/share/gamebooks"
	defaultSaveDebounceMS     = 1500
	defaultViewportDebounceMS = 1000
	defaultCatalogDriver      = "sqlite"
	defaultCatalogDatabase    = "gamebooks"
	defaultCatalogFile        = "gamebooks.db"
	defaultRevisionSchedule   = "@every 10m"
	defaultRevisionMax        = 40
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DataDir: defaultDataDir,
		Persistence: Persistence{
			SaveDebounceMS:     defaultSaveDebounceMS,
			ViewportDebounceMS: defaultViewportDebounceMS,
		},
		Catalog: Catalog{
			Driver:   defaultCatalogDriver,
			Database: defaultCatalogDatabase,
		},
		Revisions: Revisions{
			Schedule: defaultRevisionSchedule,
			Max:      defaultRevisionMax,
		},
	}
}
