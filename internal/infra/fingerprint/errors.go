package fingerprint

import "errors"

var ErrDigestSize = errors.New("digest must be 32 bytes")
