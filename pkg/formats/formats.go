// Package formats provides parsers for terrain tile file formats.
package formats

// Note: ELV (quantized elevation quadtree) is fully implemented in elv.go
