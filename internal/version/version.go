package version

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Заполняются через -ldflags "-X github.com/vladislavdragonenkov/storefront/internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build описывает сборку сервиса.
type Build struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current возвращает метаданные текущей сборки.
func Current() Build {
	return Build{Version: version, Commit: commit, Date: date}
}

// Fields удобен для стартового лога.
func (b Build) Fields() log.Fields {
	return log.Fields{
		"version": b.Version,
		"commit":  b.Commit,
		"built":   b.Date,
	}
}

func (b Build) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", b.Version, b.Commit, b.Date)
}
