package pty

import "io"

// Handle abstracts the pseudo-terminal master across Unix and Windows.
// On Unix it wraps creack/pty (*os.File), on Windows a ConPTY.
type Handle interface {
	io.ReadWriteCloser
	Resize(cols, rows uint16) error
}
