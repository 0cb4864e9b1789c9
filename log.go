package glal

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Level is the severity of a log record.
type Level uint8

const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
	levelCount
)

var levelNames = []string{"Verbose", "Debug", "Info", "Warning", "Error", "Fatal"}

var levelPrefixes = [levelCount]string{"VERBOSE: ", "DEBUG: ", "INFO: ", "WARNING: ", "ERROR: ", "FATAL: "}

func (l Level) String() string {
	return enumString(l, levelNames)
}

// ParseLevel looks a level up by name, ignoring case.
func ParseLevel(s string) (Level, error) {
	i, err := parseEnum(s, levelNames, "log level")
	return Level(i), err
}

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

// Logger writes leveled, component-tagged records and owns the fatal
// policy of everything created through an Instance.
type Logger struct {
	mu      sync.Mutex
	level   Level
	loggers [levelCount]*log.Logger
	files   []*os.File
	onFatal FatalHandler
}

// NewLogger returns a Logger writing every level at or above level to w.
func NewLogger(w io.Writer, level Level) *Logger {
	l := &Logger{level: level, onFatal: ExitOnFatal}
	for i := range l.loggers {
		l.loggers[i] = log.New(w, levelPrefixes[i], logFlags)
	}
	return l
}

// NewFileLogger opens one append-only file per severity class in dir:
// info_log.txt (verbose, debug and info), warn_log.txt, error_log.txt and
// fatal_log.txt.
func NewFileLogger(dir string, level Level) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating log directory %s", dir)
	}
	l := &Logger{level: level, onFatal: ExitOnFatal}
	open := func(name string) (*os.File, error) {
		file, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, errors.Wrapf(err, "opening log file %s", name)
		}
		l.files = append(l.files, file)
		return file, nil
	}
	names := [levelCount]string{"info_log.txt", "info_log.txt", "info_log.txt", "warn_log.txt", "error_log.txt", "fatal_log.txt"}
	opened := map[string]*os.File{}
	for i, name := range names {
		file, ok := opened[name]
		if !ok {
			var err error
			if file, err = open(name); err != nil {
				l.Close()
				return nil, err
			}
			opened[name] = file
		}
		w := io.Writer(file)
		if Level(i) >= LevelError {
			w = io.MultiWriter(file, os.Stderr)
		}
		l.loggers[i] = log.New(w, levelPrefixes[i], logFlags)
	}
	return l, nil
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// DefaultLogger is used wherever no Logger was configured.
func DefaultLogger() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = NewLogger(os.Stderr, LevelInfo)
	})
	return defaultLogger
}

func (l *Logger) or() *Logger {
	if l == nil {
		return DefaultLogger()
	}
	return l
}

func (l *Logger) Level() Level {
	l = l.or()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) SetLevel(level Level) {
	l = l.or()
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetFatalHandler replaces the fatal policy. A nil handler restores
// ExitOnFatal.
func (l *Logger) SetFatalHandler(h FatalHandler) {
	l = l.or()
	if h == nil {
		h = ExitOnFatal
	}
	l.mu.Lock()
	l.onFatal = h
	l.mu.Unlock()
}

func (l *Logger) output(depth int, level Level, component, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level && level != LevelFatal {
		return
	}
	if component != "" {
		msg = "[" + component + "] " + msg
	}
	l.loggers[level].Output(depth+1, strings.TrimSuffix(msg, "\n"))
}

func (l *Logger) Logf(level Level, component, format string, args ...interface{}) {
	l.or().output(2, level, component, fmt.Sprintf(format, args...))
}

func (l *Logger) Verbosef(component, format string, args ...interface{}) {
	l.or().output(2, LevelVerbose, component, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(component, format string, args ...interface{}) {
	l.or().output(2, LevelDebug, component, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(component, format string, args ...interface{}) {
	l.or().output(2, LevelInfo, component, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(component, format string, args ...interface{}) {
	l.or().output(2, LevelWarning, component, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(component, format string, args ...interface{}) {
	l.or().output(2, LevelError, component, fmt.Sprintf(format, args...))
}

// Fatal reports err as an unrecoverable failure of component and never
// returns.
func (l *Logger) Fatal(component string, err error) {
	l.or().fatal(component, errors.WithStackDepth(err, 1))
}

// Fatalf is Fatal with a formatted message.
func (l *Logger) Fatalf(component, format string, args ...interface{}) {
	l.or().fatal(component, errors.NewWithDepthf(1, format, args...))
}

// Assert is Fatalf when cond does not hold.
func (l *Logger) Assert(cond bool, component, format string, args ...interface{}) {
	if !cond {
		l.or().fatal(component, errors.NewWithDepthf(1, format, args...))
	}
}

// Assert is the free-function form of Logger.Assert; log may be nil.
func Assert(log *Logger, cond bool, component, format string, args ...interface{}) {
	if !cond {
		log.or().fatal(component, errors.NewWithDepthf(1, format, args...))
	}
}

func (l *Logger) fatal(component string, err error) {
	d := Diagnostic{Severity: LevelFatal, Component: component, Err: err}
	l.output(3, LevelFatal, component, err.Error())
	l.mu.Lock()
	h := l.onFatal
	l.mu.Unlock()
	h(d)
	panic(d)
}

// Close closes the files opened by NewFileLogger.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var err error
	for _, f := range l.files {
		err = errors.CombineErrors(err, f.Close())
	}
	l.files = nil
	return err
}
