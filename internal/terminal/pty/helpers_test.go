package pty

import "github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"

func nopLogger() *logger.Logger {
	return logger.NewNop()
}
