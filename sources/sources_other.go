//go:build !darwin && !linux

package sources

import "errors"

var errUnsupported = errors.New("input source directory not supported on this platform")

type nopDirectory struct{}

func NewDirectory() Directory {
	return nopDirectory{}
}

func (nopDirectory) List() ([]Source, error)  { return nil, errUnsupported }
func (nopDirectory) Current() (Source, error) { return Source{}, errUnsupported }
func (nopDirectory) Activate(id string) error { return errUnsupported }
