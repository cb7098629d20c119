package buildinfo

import "go.uber.org/zap"

// Set with -ldflags "-X github.com/PalMeany/l7-dstat/internal/buildinfo.BuildVersion=...".
var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

type Info struct {
	Version string
	Date    string
	Commit  string
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func Get() Info {
	return Info{
		Version: orNA(BuildVersion),
		Date:    orNA(BuildDate),
		Commit:  orNA(BuildCommit),
	}
}

func PrintBuildInfo(logger *zap.SugaredLogger) {
	info := Get()
	logger.Infow("build info",
		"version", info.Version,
		"date", info.Date,
		"commit", info.Commit,
	)
}
