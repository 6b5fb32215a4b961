// Package buildinfo хранит информацию о сборке приложения: версию, дату и commit hash.
// Значения передаются через -ldflags "-X main.buildVersion=...".
package buildinfo

import (
	"fmt"

	"go.uber.org/zap"
)

// notAvailable подставляется вместо незаданных значений
const notAvailable = "N/A"

// Info содержит информацию о сборке приложения
type Info struct {
	Version string
	Date    string
	Commit  string
}

// DefaultInfo возвращает информацию о сборке по умолчанию
func DefaultInfo() *Info {
	return NewInfo("", "", "")
}

// NewInfo создает информацию о сборке, заменяя пустые значения на "N/A"
func NewInfo(version, date, commit string) *Info {
	return &Info{
		Version: orNotAvailable(version),
		Date:    orNotAvailable(date),
		Commit:  orNotAvailable(commit),
	}
}

// String возвращает строковое представление информации о сборке
func (info *Info) String() string {
	return fmt.Sprintf("Version: %s, Date: %s, Commit: %s", info.Version, info.Date, info.Commit)
}

// Fields возвращает информацию о сборке в виде полей zap для лога запуска
func (info *Info) Fields() []zap.Field {
	return []zap.Field{
		zap.String("build_version", info.Version),
		zap.String("build_date", info.Date),
		zap.String("build_commit", info.Commit),
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
