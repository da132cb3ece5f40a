// Package types defines the backend kinds and the standardized provider error shared by the
// dispatch facade and every provider implementation.
package types
