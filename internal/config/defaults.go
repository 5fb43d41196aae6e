package config

// DefaultAllowedTypes mirrors the container-level video MIME types accepted at intake.
var DefaultAllowedTypes = []string{
	"video/mp4",
	"video/avi",
	"video/x-msvideo",
	"video/msvideo",
	"video/mov",
	"video/quicktime",
	"video/wmv",
	"video/x-ms-wmv",
	"video/flv",
	"video/x-flv",
}

// MaxUploadBytes is the hard upload cap. Configuration may lower it, never raise it.
const MaxUploadBytes int64 = 52428800

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	probe := "ffprobe"

	return Config{
		Service: ServiceConfig{
			Endpoint:  "http://127.0.0.1:5000",
			TimeoutMS: 600000,
		},
		Upload: UploadConfig{
			MaxBytes:       MaxUploadBytes,
			ValidateFormat: true,
			AllowedTypes:   append([]string(nil), DefaultAllowedTypes...),
		},
		Progress: ProgressConfig{
			Policy:         "staged",
			RampStep:       10,
			RampIntervalMS: 200,
			RampCap:        90,
		},
		Store: StoreConfig{
			Backend:   "file",
			RedisAddr: "127.0.0.1:6379",
			Key:       "scriber-data",
		},
		Metadata: MetadataConfig{
			ProbeCmd: CommandConfig{Raw: probe, Argv: mustParseArgv(probe)},
		},
		API: APIConfig{Listen: "127.0.0.1:5050"},
		Indicator: IndicatorConfig{
			Enable:         true,
			Width:          40,
			DesktopAppName: "scriber",
			SoundEnable:    false,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
	}
}
