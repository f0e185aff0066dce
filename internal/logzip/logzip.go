// Package logzip compresses rotated log files in the background.
//
// A Compressor periodically sweeps the log directory, submits one
// compression task per rotated file to a worker pool, gzips the file
// and deletes the original on success. The active log file is never
// touched. Idle sweeps back off so an empty directory costs nothing.
package logzip

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	"go.uber.org/zap"

	"github.com/avolkov/taskpool"
)

// maxIdleWait caps the sweep backoff when no rotated files show up.
const maxIdleWait = 30 * time.Second

// Compressor finds rotated logs under dir and feeds them to pool.
type Compressor struct {
	dir    string
	active string // base name of the live log file, never compressed
	scan   time.Duration
	pool   *taskpool.Pool[string]
	log    *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// New returns a Compressor sweeping dir every scan interval.
// activeFile is the base name of the log file currently being written.
func New(dir, activeFile string, scan time.Duration, pool *taskpool.Pool[string], log *zap.Logger) *Compressor {
	return &Compressor{
		dir:     dir,
		active:  activeFile,
		scan:    scan,
		pool:    pool,
		log:     log,
		pending: make(map[string]struct{}),
	}
}

// Run sweeps until ctx is canceled. Sweep errors are logged and the
// loop continues, except a closed pool, which ends the run.
func (c *Compressor) Run(ctx context.Context) error {
	bo := boff.New(c.scan, maxIdleWait, time.Now().UnixNano())
	for {
		n, err := c.sweep(ctx)
		if err != nil {
			if err == taskpool.ErrPoolClosed {
				return err
			}
			c.log.Warn("log sweep failed", zap.Error(err))
		}

		wait := c.scan
		if n == 0 {
			wait = bo.Next()
		} else {
			bo = boff.New(c.scan, maxIdleWait, time.Now().UnixNano())
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// sweep submits one compression task per eligible file and reports how
// many it queued. Files already queued or mid-compression are skipped;
// the pending mark is released by the task's Cleanup hook, so it clears
// whether the task ran or was discarded at shutdown.
func (c *Compressor) sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	submitted := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".log") || name == c.active {
			continue
		}
		path := filepath.Join(c.dir, name)
		if !c.mark(path) {
			continue
		}
		task := taskpool.Task[string]{
			Payload: path,
			Fn:      c.compress,
			Ctx:     ctx,
			Cleanup: func() { c.release(path) },
		}
		if err := c.pool.Submit(task); err != nil {
			c.release(path)
			return submitted, err
		}
		submitted++
	}
	return submitted, nil
}

func (c *Compressor) mark(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[path]; ok {
		return false
	}
	c.pending[path] = struct{}{}
	return true
}

func (c *Compressor) release(path string) {
	c.mu.Lock()
	delete(c.pending, path)
	c.mu.Unlock()
}

// compress gzips path into path.gz and removes the original. Failures
// leave the original in place for the next sweep.
func (c *Compressor) compress(path string) {
	dst := path + ".gz"

	in, err := os.Open(path)
	if err != nil {
		c.log.Error("open log failed", zap.String("file", path), zap.Error(err))
		return
	}

	out, err := os.Create(dst)
	if err != nil {
		in.Close()
		c.log.Error("create compressed log failed", zap.String("file", dst), zap.Error(err))
		return
	}

	zw := gzip.NewWriter(out)
	_, err = io.Copy(zw, in)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	in.Close()
	if err != nil {
		os.Remove(dst)
		c.log.Error("compress failed", zap.String("file", path), zap.Error(err))
		return
	}

	if err := os.Remove(path); err != nil {
		c.log.Error("remove original failed", zap.String("file", path), zap.Error(err))
		return
	}
	c.log.Info("log compressed", zap.String("file", path), zap.String("compressed", dst))
}
