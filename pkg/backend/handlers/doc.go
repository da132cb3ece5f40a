// Package handlers contains the HTTP handlers of the dispatch server. Dispatch handlers read the
// body, call the facade and write its Result; the remaining handlers report health, version and
// the configured backends.
package handlers
