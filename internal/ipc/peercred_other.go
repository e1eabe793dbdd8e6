//go:build !linux

package ipc

import "net"

// checkPeer relies on the socket's file mode where peer credentials are
// not available.
func checkPeer(*net.UnixConn) error { return nil }
