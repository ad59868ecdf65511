package passes

import "errors"

var ErrLayoutMismatch = errors.New("attachment layout mismatch")
