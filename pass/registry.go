package pass

import (
	"io"
	"io/ioutil"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/nickng/loopopt/loopstats"
)

var (
	ErrUnknownPass   = errors.New("unknown pass")
	ErrUnknownFormat = errors.New("unknown report format")
	ErrDuplicatePass = errors.New("pass already registered")
)

// Options configure the passes built by New.
type Options struct {
	Out    io.Writer           // Diagnostic output. Discarded if nil.
	Format string              // Report format of loopstats: "text" (default) or "table".
	Seq    *loopstats.Sequence // Loop IDs of loopstats. A new sequence if nil.
}

// Constructor builds a pass.
type Constructor func(opts Options) (LoopPass, error)

var registry = struct {
	sync.Mutex
	m map[string]Constructor
}{m: make(map[string]Constructor)}

// Register makes a pass available by name. It panics if name is taken.
func Register(name string, ctor Constructor) {
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.m[name]; dup {
		panic(errors.Wrap(ErrDuplicatePass, name))
	}
	registry.m[name] = ctor
}

// Lookup returns the constructor of the pass called name.
func Lookup(name string) (Constructor, bool) {
	registry.Lock()
	defer registry.Unlock()
	ctor, ok := registry.m[name]
	return ctor, ok
}

// Names returns the registered pass names in sorted order.
func Names() []string {
	registry.Lock()
	defer registry.Unlock()
	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the passes called names, in order.
func New(names []string, opts Options) ([]LoopPass, error) {
	if opts.Out == nil {
		opts.Out = ioutil.Discard
	}
	if opts.Seq == nil {
		opts.Seq = &loopstats.Sequence{}
	}
	passes := make([]LoopPass, 0, len(names))
	for _, name := range names {
		ctor, ok := Lookup(name)
		if !ok {
			return nil, errors.Wrap(ErrUnknownPass, name)
		}
		p, err := ctor(opts)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create pass %s", name)
		}
		passes = append(passes, p)
	}
	return passes, nil
}

func init() {
	Register("licm", func(opts Options) (LoopPass, error) {
		return NewLICM(opts.Out), nil
	})
	Register("loopstats", func(opts Options) (LoopPass, error) {
		switch opts.Format {
		case "", "text":
			return NewLoopStats(opts.Seq, loopstats.NewTextWriter(opts.Out)), nil
		case "table":
			return NewLoopStats(opts.Seq, loopstats.NewTableWriter(opts.Out)), nil
		}
		return nil, errors.Wrap(ErrUnknownFormat, opts.Format)
	})
}
