package observable

import "errors"

// ErrIndexOutOfRange is returned by positional list operations with an
// invalid index.
var ErrIndexOutOfRange = errors.New("index out of range")
