//go:build linux

package stenura

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OpenSerial opens path (e.g. "/dev/ttyUSB0") and configures it for Stenura:
// 9600 8N1, canonical mode off, XON/XOFF disabled, so reads return whatever
// bytes are available rather than waiting for a line.
func OpenSerial(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("stenura: open %s: %w", path, err)
	}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stenura: get termios: %w", err)
	}

	t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY | unix.ICRNL | unix.INLCR
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ISIG
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	t.Ispeed = unix.B9600
	t.Ospeed = unix.B9600

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("stenura: set termios: %w", err)
	}

	return f, nil
}
