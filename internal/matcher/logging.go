package matcher

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hetulpatel/arbmatch/internal/matches"
)

type LogMode int

const (
	LogModeQuiet LogMode = iota
	LogModeSummary
	LogModeVerbose
)

func ParseLogMode(input string) LogMode {
	switch strings.ToLower(input) {
	case "summary":
		return LogModeSummary
	case "verbose":
		return LogModeVerbose
	default:
		return LogModeQuiet
	}
}

// Logger prints confirmed matches to the console.
type Logger struct {
	mode LogMode
	out  io.Writer
}

func NewLogger(mode LogMode) *Logger {
	return &Logger{mode: mode, out: os.Stdout}
}

// WithOutput redirects console output.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	l.out = w
	return l
}

func (l *Logger) Mode() LogMode {
	if l == nil {
		return LogModeQuiet
	}
	return l.mode
}

func (l *Logger) Enabled() bool {
	return l != nil && l.mode != LogModeQuiet
}

func (l *Logger) LogMatch(rec matches.MatchRecord, threshold float64) {
	if !l.Enabled() {
		return
	}
	switch l.mode {
	case LogModeSummary:
		fmt.Fprintf(l.out, "[matcher] matched polymarket %s (%s) <-> kalshi %s (%s) sim=%.4f threshold=%.4f tier=%s\n",
			rec.Polymarket.ID, rec.Polymarket.Title, rec.Kalshi.ID, rec.Kalshi.Title, rec.Similarity, threshold, rec.Tier)
	case LogModeVerbose:
		data, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Fprintf(l.out, "[matcher] match sim=%.4f threshold=%.4f\n%s\n", rec.Similarity, threshold, string(data))
	}
}

// LogPass prints a one-line summary after a pass completes.
func (l *Logger) LogPass(pass string, evaluated, matched int) {
	if !l.Enabled() {
		return
	}
	fmt.Fprintf(l.out, "[matcher] %s pass evaluated=%d matched=%d\n", pass, evaluated, matched)
}
