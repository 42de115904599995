// Package completion obtains chat replies from an OpenAI-compatible
// provider. Every failure mode surfaces as ErrUnavailable; callers treat
// the provider as a single opaque dependency.
package completion
