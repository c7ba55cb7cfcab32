// Package facegrid partitions a region of interest into the 3x3 sticker
// grid of a cube face and smooths each cell's color over recent frames.
//
// Sample computes one raw color per cell from a single frame. Smoother keeps
// a bounded FIFO per cell and reduces it to a smoothed grid. Both truncate
// averages toward zero so output is reproducible across platforms.
//
// Smoother is owned by the capture goroutine and is not safe for concurrent
// use.
package facegrid
