package config

const (
	defaultOutputDir     = "~/mediatoc"
	defaultLogDir        = "~/.local/share/mediatoc/logs"
	defaultHistoryPath   = "~/.local/share/mediatoc/history.db"
	defaultExportFormat  = "mkvmerge"
	defaultSplitProfile  = "flac"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
			HistoryPath: defaultHistoryPath,
		},
		Export: Export{
			Format: defaultExportFormat,
		},
		Split: Split{
			Profile: defaultSplitProfile,
		},
		Engine: Engine{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
