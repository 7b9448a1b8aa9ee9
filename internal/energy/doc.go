// Package energy computes normalized signal energy for silence detection.
// It provides per-window RMS calculation and a ring-buffer tap that decouples
// analysis cadence from device frame delivery.
package energy
