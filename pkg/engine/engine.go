// Package engine evaluates spool catalog scripts. Scripts run in a zygomys
// sandbox whose builtins add generation jobs to a catalog.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/spool/pkg/catalog"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a script error: a parse failure, an undefined symbol, or a
// builtin rejecting its arguments. Line is zero when zygomys reports no
// position.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scripts one sandbox per call. It is safe for concurrent
// use; only the most recent call's result is returned.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine returns an Engine with DefaultTimeout unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs source and returns the sealed catalog it declared.
//
// Script errors come back as EvalErrors with a nil catalog. The error
// return is reserved for the engine itself: a timeout, a panic inside the
// interpreter, or a call superseded by a newer one.
func (e *Engine) Evaluate(source string) (*catalog.Catalog, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		c, errs := run(source)
		ch <- evalResult{catalog: c, errors: errs}
	}()

	return e.wait(ch, gen)
}

// run evaluates source in a fresh sandbox with no filesystem or process
// access.
func run(source string) (*catalog.Catalog, []EvalError) {
	c := catalog.New()
	if strings.TrimSpace(source) == "" {
		return c.Seal(), nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, c)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return c.Seal(), nil
}

// zygomys embeds positions in its messages as "Error on line N: ..." for
// parse errors and "line N: ..." for some runtime errors.
var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
