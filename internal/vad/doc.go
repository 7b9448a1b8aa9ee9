// Package vad decides when a recording should stop based on signal energy.
// The canonical detector applies hysteresis thresholds with a minimum
// recording duration guard; a legacy debounce variant is available behind
// explicit configuration.
package vad
