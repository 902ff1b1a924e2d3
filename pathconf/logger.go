package pathconf

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Logger is the ambient logging interface threaded through every subsystem,
// mirroring the teacher's types.Logger (Printf-style) so component code
// never depends on zap directly.
type Logger interface {
	Printf(format string, v ...interface{})
}

type zapLogger struct {
	z *zap.SugaredLogger
}

func (l *zapLogger) Printf(format string, v ...interface{}) {
	l.z.Infof(format, v...)
}

// NewLogger builds the ambient logger: the same structured JSON output to
// both ENGINE_DATADIR/logs/<run>.log and stderr, per
// spec §7 ("internal errors ... also write a detailed trace to the log
// directory").
func NewLogger(dirs Dirs, runID string) (Logger, func(), error) {
	logDir := filepath.Join(dirs.Data, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{
		"stderr",
		filepath.Join(logDir, runID+".log"),
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return &zapLogger{z: z.Sugar()}, func() { _ = z.Sync() }, nil
}

// DefaultLogger is a no-frills stderr-only logger, used when NewLogger cannot
// set up the log directory or its outputs.
func DefaultLogger() Logger {
	z, _ := zap.NewDevelopment()
	return &zapLogger{z: z.Sugar()}
}
