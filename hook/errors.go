package hook

import (
	"errors"
	"fmt"
)

var (
	ErrHookNotFound             = errors.New("hook not found")
	ErrHookAlreadyExists        = errors.New("hook already exists")
	ErrEmptyHookID              = errors.New("hook id cannot be empty")
	ErrRateLimitExceeded        = errors.New("rate limit exceeded")
	ErrGlobalRateLimitExceeded  = errors.New("global rate limit exceeded")
	ErrTopicRateLimitExceeded   = errors.New("topic rate limit exceeded")
	ErrClientRateLimitExceeded  = fmt.Errorf("client %w", ErrRateLimitExceeded)
	ErrRatelimitClientNil       = errors.New("rate limit: client cannot be nil")
	ErrUnsupportedCompression   = errors.New("unsupported compression algorithm")
	ErrCompressionPayloadTooBig = errors.New("payload exceeds maximum compressible size")
)
