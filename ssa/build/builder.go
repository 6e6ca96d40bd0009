package build

import (
	"bytes"
	"io"
	"io/ioutil"
	"log"

	"github.com/pkg/errors"

	"github.com/nickng/loopopt/ssa"
)

// Builder builds SSA IR and metainfo.
type Builder interface {
	Build() (*ssa.Info, error)
}

// FileSrc is a set of filenames.
type FileSrc struct {
	Files []string
}

// FromFiles returns a non-nil Builder from a slice of filenames.
func FromFiles(files ...string) Configurer {
	return newConfig(&FileSrc{Files: files})
}

// CachedSrc is source file from a reader.
type CachedSrc struct {
	cached []byte
}

// FromReader returns a non-nil Builder for a reader.
// This is typically used for testing or building a temporary file.
func FromReader(r io.Reader) Configurer {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to read from reader"))
	}
	return newConfig(&CachedSrc{cached: b})
}

// NewReader returns a reader for reading the string content.
func (s *CachedSrc) NewReader() io.Reader {
	return bytes.NewReader(s.cached)
}
