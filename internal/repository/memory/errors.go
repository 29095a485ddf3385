package memory

import "errors"

var errReadOnly = errors.New("memory: write inside read-only view")
