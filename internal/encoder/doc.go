// Package encoder turns captured PCM audio into an ordered sequence of
// encoded chunks and, on finalize, an immutable artifact. Profile selection
// happens once per session with fallback to the default container.
package encoder
