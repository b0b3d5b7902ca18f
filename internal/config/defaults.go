package config

const (
	defaultConfigPath         = "~/.config/docvault/config.toml"
	defaultDataDir            = "~/.local/share/docvault"
	defaultLogDir             = "~/.local/share/docvault/logs"
	defaultOutputDir          = "~/Desktop"
	defaultTemplatesDir       = "~/.config/docvault/templates"
	defaultArchiveRoot        = "~/Documents/FileArchive"
	defaultNamingTemplate     = "{date}_{title}.{extension}"
	defaultArchiveDelay       = 5
	defaultPollIntervalMillis = 2000
	defaultMaxConcurrency     = 8
	defaultMaxArchiveAttempts = 5
	defaultOpenCommand        = "xdg-open"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultNtfyTimeoutSeconds = 10
)

var defaultExtensions = []string{"docx", "xlsx", "pptx", "odt", "ods", "odp", "md", "txt"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	extensions := make([]string, len(defaultExtensions))
	copy(extensions, defaultExtensions)
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			OutputDir:    defaultOutputDir,
			TemplatesDir: defaultTemplatesDir,
		},
		Archive: Archive{
			Root:                    defaultArchiveRoot,
			NamingTemplate:          defaultNamingTemplate,
			AutoArchiveDelaySeconds: defaultArchiveDelay,
		},
		Monitor: Monitor{
			PollIntervalMillis: defaultPollIntervalMillis,
			MaxConcurrency:     defaultMaxConcurrency,
			MaxArchiveAttempts: defaultMaxArchiveAttempts,
			AdvisoryProbe:      true,
		},
		Creator: Creator{
			OpenCommand: defaultOpenCommand,
			Extensions:  extensions,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			Failures:              true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
