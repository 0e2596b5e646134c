// Package loader decodes model assets off the render thread and hands the
// placed models to the scene.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/modelviewer/internal/engine/material"
	"github.com/Faultbox/modelviewer/internal/engine/model"
	"github.com/Faultbox/modelviewer/internal/logger"
)

// DefaultTimeout bounds a single decode.
const DefaultTimeout = 30 * time.Second

// Decoder turns an asset path into meshes in model space.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]model.Mesh, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, path string) ([]model.Mesh, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, path string) ([]model.Mesh, error) {
	return f(ctx, path)
}

// Inserter receives finished models. scene.Scene implements it.
type Inserter interface {
	InsertModel(m *model.Model) error
}

// Dispatcher runs fn on the render thread. frame.Queue implements it.
type Dispatcher interface {
	Post(fn func())
}

// Options configures a Loader.
type Options struct {
	// Slots is the number of valid load indices. Zero means unlimited.
	Slots int
	// Timeout bounds each decode. Zero uses DefaultTimeout.
	Timeout time.Duration
	// Material overrides every decoded mesh. Zero uses material.Showcase.
	Material material.Physical
	// Dispatcher schedules insertion. Nil inserts from the decode goroutine.
	Dispatcher Dispatcher
}

// Loader issues independent, non-blocking load requests.
type Loader struct {
	decoder  Decoder
	dst      Inserter
	dispatch Dispatcher
	slots    int
	timeout  time.Duration
	mat      material.Physical
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	requested map[int]string
	loaded    map[int]string
	failures  []*AssetLoadError
	closed    bool
}

// New creates a loader that decodes with dec and inserts into dst.
func New(dec Decoder, dst Inserter, opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Material == (material.Physical{}) {
		opts.Material = material.Showcase()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		decoder:   dec,
		dst:       dst,
		dispatch:  opts.Dispatcher,
		slots:     opts.Slots,
		timeout:   opts.Timeout,
		mat:       opts.Material,
		log:       logger.Named("loader"),
		ctx:       ctx,
		cancel:    cancel,
		requested: make(map[int]string),
		loaded:    make(map[int]string),
	}
}

// RequestLoad starts decoding path for slot index and returns immediately.
// Each index may be requested once.
func (l *Loader) RequestLoad(path string, index int) error {
	if index < 0 || (l.slots > 0 && index >= l.slots) {
		return fmt.Errorf("request %q: index %d: %w", path, index, ErrIndexOutOfRange)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if prev, ok := l.requested[index]; ok {
		l.mu.Unlock()
		return fmt.Errorf("request %q: index %d held by %q: %w", path, index, prev, ErrAlreadyRequested)
	}
	l.requested[index] = path
	l.wg.Add(1)
	l.mu.Unlock()

	l.log.Debug("load requested", zap.String("path", path), zap.Int("index", index))
	go l.run(path, index)
	return nil
}

// LoadAll requests every path with its position as load index. Requests that
// cannot be issued are returned joined; the rest still proceed.
func (l *Loader) LoadAll(paths []string) error {
	var errs []error
	for i, p := range paths {
		if err := l.RequestLoad(p, i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) run(path string, index int) {
	defer l.wg.Done()

	start := time.Now()
	meshes, err := l.decode(path)
	if err != nil {
		l.fail(path, index, err)
		return
	}
	if len(meshes) == 0 {
		l.fail(path, index, ErrNoMeshes)
		return
	}

	m := model.New(path, index, meshes, l.mat)
	l.log.Debug("asset decoded",
		zap.String("path", path),
		zap.Int("index", index),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("triangles", m.TriangleCount()),
		zap.Duration("took", time.Since(start)),
	)

	insert := func() {
		if err := l.dst.InsertModel(m); err != nil {
			l.fail(path, index, err)
			return
		}
		l.mu.Lock()
		l.loaded[index] = path
		l.mu.Unlock()
		l.log.Info("model loaded",
			zap.String("path", path),
			zap.Int("index", index),
			zap.Float32("x", m.Transform.Position[0]),
		)
	}
	if l.dispatch != nil {
		l.dispatch.Post(insert)
		return
	}
	insert()
}

// decode runs the decoder with a timeout and turns panics into errors.
func (l *Loader) decode(path string) (meshes []model.Mesh, err error) {
	ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			meshes = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	meshes, err = l.decoder.Decode(ctx, path)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return meshes, err
}

func (l *Loader) fail(path string, index int, err error) {
	loadErr := &AssetLoadError{Path: path, Index: index, Err: err}

	l.mu.Lock()
	l.failures = append(l.failures, loadErr)
	l.mu.Unlock()

	l.log.Warn("asset load failed",
		zap.String("path", path),
		zap.Int("index", index),
		zap.Error(err),
	)
}

// Failures returns every load error so far.
func (l *Loader) Failures() []*AssetLoadError {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*AssetLoadError(nil), l.failures...)
}

// Loaded returns the indices inserted so far, keyed to their path.
func (l *Loader) Loaded() map[int]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int]string, len(l.loaded))
	for k, v := range l.loaded {
		out[k] = v
	}
	return out
}

// Wait blocks until every issued decode has finished. Insertions posted to a
// Dispatcher may still be pending.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close cancels in-flight decodes and waits for them to return.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}
