package loggingx

import (
	"fmt"
	"strings"

	"github.com/dogmatiq/dodeca/logging"
)

// WithPrefix returns a logger that adds a prefix to log messages.
//
// If target is nil, logging.DefaultLogger is used. If target was itself
// returned by WithPrefix, the prefixes are joined so that each message passes
// through a single logger.
func WithPrefix(target logging.Logger, f string, v ...interface{}) logging.Logger {
	if target == nil {
		target = logging.DefaultLogger
	}

	prefix := fmt.Sprintf(f, v...)

	if p, ok := target.(*prefixer); ok {
		return newPrefixer(p.target, p.prefix+prefix)
	}

	return newPrefixer(target, prefix)
}

// Prefix returns the prefix added by l, or an empty string if l was not
// returned by WithPrefix.
func Prefix(l logging.Logger) string {
	if p, ok := l.(*prefixer); ok {
		return p.prefix
	}
	return ""
}

func newPrefixer(target logging.Logger, prefix string) *prefixer {
	return &prefixer{
		target: target,
		prefix: prefix,
		format: strings.ReplaceAll(prefix, "%", "%%"),
	}
}

// prefixer is a logging.Logger that prepends a fixed prefix to every message.
// format is the prefix escaped for use in a format string.
type prefixer struct {
	target logging.Logger
	prefix string
	format string
}

func (p *prefixer) Log(f string, v ...interface{}) {
	p.target.Log(p.format+f, v...)
}

func (p *prefixer) LogString(s string) {
	p.target.LogString(p.prefix + s)
}

func (p *prefixer) Debug(f string, v ...interface{}) {
	p.target.Debug(p.format+f, v...)
}

func (p *prefixer) DebugString(s string) {
	p.target.DebugString(p.prefix + s)
}

func (p *prefixer) IsDebug() bool {
	return p.target.IsDebug()
}
