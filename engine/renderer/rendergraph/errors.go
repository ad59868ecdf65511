package rendergraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spaghettifunk/rendergraph/engine/config"
)

var (
	ErrAttachmentConflict   = errors.New("attachment conflict")
	ErrUnknownAttachment    = errors.New("unknown attachment")
	ErrResourceExhausted    = errors.New("resource exhausted")
	ErrCyclicDependency     = errors.New("cyclic dependency")
	ErrUnknownDependency    = errors.New("unknown dependency")
	ErrInitializationFailed = errors.New("initialization failed")
	ErrMissingConfigKey     = config.ErrMissingConfigKey
	ErrDuplicateNode        = errors.New("duplicate node")
	ErrImageIndexOutOfRange = errors.New("image index out of range")
	ErrGraphState           = errors.New("invalid graph state")
	ErrReadBeforeWrite      = errors.New("attachment read before any write")
)

// CyclicDependencyError lists the members of one dependency cycle in
// insertion order.
type CyclicDependencyError struct {
	Nodes []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("%s between nodes [%s]", ErrCyclicDependency, strings.Join(e.Nodes, ", "))
}

func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}

// UnknownDependencyError names a dependency edge whose target was never added.
type UnknownDependencyError struct {
	Node string
	Name string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("%s: node %q depends on %q", ErrUnknownDependency, e.Node, e.Name)
}

func (e *UnknownDependencyError) Unwrap() error {
	return ErrUnknownDependency
}
