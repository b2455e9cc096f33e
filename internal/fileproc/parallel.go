// Package fileproc parses documents on a bounded worker pool.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// Failure is a document that could not be processed.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Path, f.Err) }
func (f Failure) Unwrap() error { return f.Err }

// Failures lists the documents of one run that failed, in completion order.
type Failures []Failure

func (fs Failures) Error() string {
	switch len(fs) {
	case 0:
		return "no failures"
	case 1:
		return fs[0].Error()
	}
	return fmt.Sprintf("%d documents failed (first: %v)", len(fs), fs[0])
}

// DefaultWorkers is used when no worker count is configured. Parsing mixes
// file I/O with cgo calls, so it runs two workers per CPU.
func DefaultWorkers() int { return runtime.NumCPU() * 2 }

// parsers hands out tree-sitter parsers so that each running worker holds
// exactly one, and at most workers are ever created.
type parsers struct {
	free chan *parser.Parser
}

func newParsers(n int) *parsers {
	return &parsers{free: make(chan *parser.Parser, n)}
}

func (p *parsers) get() *parser.Parser {
	select {
	case psr := <-p.free:
		return psr
	default:
		return parser.New()
	}
}

func (p *parsers) put(psr *parser.Parser) {
	select {
	case p.free <- psr:
	default:
		psr.Close()
	}
}

func (p *parsers) close() {
	for {
		select {
		case psr := <-p.free:
			psr.Close()
		default:
			return
		}
	}
}

// Map runs fn over files on at most workers goroutines (DefaultWorkers when
// workers <= 0). results[i] belongs to files[i]; a failed file keeps the
// zero value and is reported in Failures. Once ctx is done no new file is
// started and the remaining files fail with ctx.Err(). onDone, if set, is
// called once per file.
func Map[T any](
	ctx context.Context,
	files []string,
	workers int,
	fn func(context.Context, *parser.Parser, string) (T, error),
	onDone func(),
) ([]T, Failures) {
	if len(files) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	var (
		mu       sync.Mutex
		failures Failures
	)
	fail := func(path string, err error) {
		mu.Lock()
		failures = append(failures, Failure{Path: path, Err: err})
		mu.Unlock()
	}

	shared := newParsers(workers)
	defer shared.close()

	results := make([]T, len(files))
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if onDone != nil {
				defer onDone()
			}
			if err := ctx.Err(); err != nil {
				fail(path, err)
				return err
			}

			psr := shared.get()
			defer shared.put(psr)

			result, err := fn(ctx, psr, path)
			if err != nil {
				// One bad document never stops the others.
				fail(path, err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	// Cancellation is already recorded per file.
	_ = p.Wait()

	return results, failures
}

// ParseAll parses every file as C#, keeping input order. Documents that
// cannot be read or parsed leave a nil slot.
func ParseAll(ctx context.Context, files []string, workers int, onDone func()) ([]*parser.ParseResult, Failures) {
	return Map(ctx, files, workers, func(ctx context.Context, psr *parser.Parser, path string) (*parser.ParseResult, error) {
		return psr.ParseFile(ctx, path)
	}, onDone)
}
