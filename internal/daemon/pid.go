package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	// ErrPIDFileNotFound is returned when the PID file does not exist.
	ErrPIDFileNotFound = errors.New("PID file not found")
	// ErrInvalidPIDFile is returned when the PID file contains invalid data.
	ErrInvalidPIDFile = errors.New("invalid PID file")
	// ErrAddrFileNotFound is returned when no listen address was recorded.
	ErrAddrFileNotFound = errors.New("address file not found")
)

// ServerStatus describes a server process found through its PID file.
type ServerStatus struct {
	Running   bool
	PID       int
	Reachable bool // the listen address accepts connections
}

// WritePIDFile writes the current process ID to path.
func WritePIDFile(path string) error {
	data := []byte(strconv.Itoa(os.Getpid()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// ReadPIDFile reads the process ID stored at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrPIDFileNotFound
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPIDFile, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("%w: invalid PID %d", ErrInvalidPIDFile, pid)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file. A missing file is not an error.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// WriteAddrFile records the address a running server is bound to.
func WriteAddrFile(path, addr string) error {
	if err := os.WriteFile(path, []byte(addr+"\n"), 0644); err != nil {
		return fmt.Errorf("write address file: %w", err)
	}
	return nil
}

// ReadAddrFile returns the address recorded by WriteAddrFile.
func ReadAddrFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrAddrFileNotFound
		}
		return "", fmt.Errorf("read address file: %w", err)
	}

	addr := strings.TrimSpace(string(data))
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("invalid address file: %w", err)
	}
	return addr, nil
}

// RemoveAddrFile removes the address file. A missing file is not an error.
func RemoveAddrFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove address file: %w", err)
	}
	return nil
}

// IsProcessRunning probes pid with signal 0.
func IsProcessRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, fmt.Errorf("invalid PID: %d", pid)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, fmt.Errorf("find process: %w", err)
	}

	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil, errors.Is(err, syscall.EPERM):
		return true, nil
	case errors.Is(err, syscall.ESRCH), errors.Is(err, os.ErrProcessDone):
		return false, nil
	default:
		return false, fmt.Errorf("check process: %w", err)
	}
}

// IsReachable reports whether addr accepts a TCP connection within timeout.
// The probe connection is closed immediately; the server logs it as an
// unexpected disconnection.
func IsReachable(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// GetServerStatus combines the PID file with a process check.
// Reachability is only probed when probe is true, since a probe occupies the
// server's single connection slot for a moment.
func GetServerStatus(pidPath, addr string, probe bool) (*ServerStatus, error) {
	status := &ServerStatus{}

	pid, err := ReadPIDFile(pidPath)
	if err != nil {
		if errors.Is(err, ErrPIDFileNotFound) {
			return status, nil
		}
		return status, fmt.Errorf("read PID: %w", err)
	}
	status.PID = pid

	running, err := IsProcessRunning(pid)
	if err != nil {
		return status, fmt.Errorf("check process %d: %w", pid, err)
	}
	status.Running = running

	if running && probe {
		status.Reachable = IsReachable(addr, time.Second)
	}
	return status, nil
}
