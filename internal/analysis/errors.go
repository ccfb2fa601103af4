package analysis

import "fmt"

// Kind identifies one entry of the closed run-failure taxonomy.
type Kind string

const (
	// Local precondition failures, detected before any provider call.
	KindMissingUpstreamAsset Kind = "MISSING_UPSTREAM_ASSET"
	KindIncompleteParameters Kind = "INCOMPLETE_PARAMETERS"

	// Failures around the provider call itself.
	KindUpstreamAssetUnreadable Kind = "UPSTREAM_ASSET_UNREADABLE"
	KindProviderAuth            Kind = "PROVIDER_AUTH_ERROR"
	KindProviderRateLimited     Kind = "PROVIDER_RATE_LIMITED"
	KindProviderContentTooLarge Kind = "PROVIDER_CONTENT_TOO_LARGE"
	KindResponseEmpty           Kind = "RESPONSE_EMPTY"
	KindResponseParse           Kind = "RESPONSE_PARSE_ERROR"
	KindProviderUnknown         Kind = "PROVIDER_UNKNOWN_ERROR"
)

// Local reports whether the kind is a precondition failure that never
// reached the provider. Logging distinguishes these from provider faults
// even though the user-visible treatment is the same.
func (k Kind) Local() bool {
	return k == KindMissingUpstreamAsset || k == KindIncompleteParameters
}

// RunError is the failure of one analysis run. Message is user-facing;
// Err carries the underlying cause for logs.
type RunError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a RunError with the default user-facing message for
// the kind.
func NewRunError(kind Kind, cause error) *RunError {
	return &RunError{Kind: kind, Message: userMessage(kind), Err: cause}
}

func userMessage(kind Kind) string {
	switch kind {
	case KindMissingUpstreamAsset:
		return "Connect an image node with an uploaded image before running the analysis."
	case KindIncompleteParameters:
		return "Fill in the intent text and select both presets before running the analysis."
	case KindUpstreamAssetUnreadable:
		return "The connected image could not be read. Try uploading it again."
	case KindProviderAuth:
		return "The analysis provider rejected the configured credentials."
	case KindProviderRateLimited:
		return "The analysis provider is throttling requests. Please retry in a moment."
	case KindProviderContentTooLarge:
		return "The image is too large for the analysis provider."
	case KindResponseEmpty:
		return "The analysis provider returned an empty response."
	case KindResponseParse:
		return "The analysis response could not be understood."
	default:
		return "The analysis failed. Please try again."
	}
}
