package transfer

import "errors"

// ErrTransferFailed marks a task whose transfer did not complete after
// retry handling. Every failed Result wraps it.
var ErrTransferFailed = errors.New("transfer failed")
