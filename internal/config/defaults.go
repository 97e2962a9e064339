package config

const (
	defaultConfigPath          = "~/.config/hlsladder/config.toml"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultWorkers             = 10
	defaultProbeTimeoutSeconds = 60
	defaultHistoryPath         = "~/.local/share/hlsladder/history.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Transcode: Transcode{
			Workers:             defaultWorkers,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
