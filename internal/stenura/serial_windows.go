//go:build windows

package stenura

import (
	"errors"
	"os"
)

// ErrUnsupportedPlatform is returned by OpenSerial on platforms where the
// termios-based serial setup hasn't been ported.
var ErrUnsupportedPlatform = errors.New("stenura: serial transport not supported on this platform")

// OpenSerial is unimplemented on Windows: the Stenura machines this package
// targets are deployed against Linux hosts, and porting the termios setup to
// the Windows comm API is out of scope for now.
func OpenSerial(path string) (*os.File, error) {
	return nil, ErrUnsupportedPlatform
}
