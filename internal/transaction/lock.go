// Package transaction provides the lock that serialises installs into the
// same directory.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"gopkg.in/yaml.v3"
)

const (
	// StaleLockThreshold is the age after which any lock is taken over.
	StaleLockThreshold = 10 * time.Minute
	// DefaultPollInterval is how often WaitLock retries a held lock.
	DefaultPollInterval = 250 * time.Millisecond
)

// ErrLockExists is returned when a live lock is held by someone else.
var ErrLockExists = errors.New("install lock exists: another install may be in progress")

// Holder is the content of a lock file.
type Holder struct {
	PID      int32     `yaml:"pid"`
	Hostname string    `yaml:"hostname"`
	Acquired time.Time `yaml:"acquired"`
}

// pidExists reports whether a local process is running. Tests replace it.
var pidExists = process.PidExists

// Lock is a held lock file.
type Lock struct {
	path string
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// AcquireLock takes <dir>/<name>.lock without waiting. The file is created
// with O_EXCL. A lock whose holder died on this host, or that is older
// than StaleLockThreshold, is taken over.
func AcquireLock(ctx context.Context, dir, name string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("lock name is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, name+".lock")
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if os.IsExist(err) && isLockStale(lockPath) {
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	}
	if os.IsExist(err) {
		return nil, ErrLockExists
	}
	if err != nil {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	hostname, _ := os.Hostname()
	holder := Holder{PID: int32(os.Getpid()), Hostname: hostname, Acquired: time.Now().UTC()}
	if err := yaml.NewEncoder(file).Encode(holder); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(lockPath)
		return nil, fmt.Errorf("close lock file: %w", err)
	}

	return &Lock{path: lockPath}, nil
}

// WaitLock polls AcquireLock every interval until the lock is taken or ctx
// is done.
func WaitLock(ctx context.Context, dir, name string, interval time.Duration) (*Lock, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		lock, err := AcquireLock(ctx, dir, name)
		if !errors.Is(err, ErrLockExists) {
			return lock, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for %s lock: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release removes the lock file. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// ReadHolder parses a lock file.
func ReadHolder(lockPath string) (*Holder, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	var h Holder
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse lock file: %w", err)
	}
	if h.PID <= 0 {
		return nil, fmt.Errorf("parse lock file: no pid")
	}
	return &h, nil
}

func isLockStale(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > StaleLockThreshold {
		return true
	}

	// An unreadable holder may still be writing the file.
	holder, err := ReadHolder(lockPath)
	if err != nil {
		return false
	}
	if hostname, _ := os.Hostname(); holder.Hostname != hostname {
		return false
	}
	alive, err := pidExists(holder.PID)
	return err == nil && !alive
}
