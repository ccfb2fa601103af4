package llm

import (
	"context"
	"errors"
)

// Image is the binary payload handed to a provider.
type Image struct {
	Data        []byte
	ContentType string
}

// VisionClient issues one image analysis request against a provider and
// returns the raw text content of the response. An empty string with a nil
// error means the provider answered with no content.
type VisionClient interface {
	Analyze(ctx context.Context, system, prompt string, img Image) (string, error)
}

// Provider fault classes. Clients wrap SDK errors with these sentinels so
// callers can classify failures without importing provider SDKs.
var (
	ErrAuth            = errors.New("provider rejected credentials")
	ErrRateLimited     = errors.New("provider rate limited")
	ErrContentTooLarge = errors.New("provider rejected payload size")
)
