package log

import "go.uber.org/zap"

// Nop returns a logger that discards everything
func Nop() Log {
	return &Logger{zapLogger: zap.NewNop(), level: LevelSilent}
}

// OrNop returns l, or Nop when l is nil
func OrNop(l Log) Log {
	if l == nil {
		return Nop()
	}
	return l
}
