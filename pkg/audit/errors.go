package audit

import "errors"

var ErrNoUser = errors.New("no authenticated user to audit")
