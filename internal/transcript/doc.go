// Package transcript renders a message history into the plain-text form
// handed to the completion provider, with an optional sliding window that
// drops the oldest lines when the result exceeds a byte budget.
package transcript
