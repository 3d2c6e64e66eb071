package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ELV layout constants.
const (
	// GridSize is the number of grid points along each side of a tile.
	GridSize = 256

	// GridCells is the number of elevation values in one tile.
	GridCells = GridSize * GridSize

	// QuadtreeLevels is the number of subdivisions between the root and the
	// leaf layer (256 = 2^8).
	QuadtreeLevels = 8

	// NumQuadrants is the number of interior quadtree nodes:
	// 1 + 4 + 16 + ... + 4^7.
	NumQuadrants = (1<<(2*QuadtreeLevels) - 1) / 3

	// NumNodes is the length of the flat quadtree array.
	NumNodes = NumQuadrants + GridCells
)

// ELV format errors.
var (
	ErrMissingElevationData   = errors.New("missing elevation data")
	ErrTruncatedElevationData = errors.New("truncated elevation data")
	ErrElevationOutOfRange    = errors.New("elevation out of range")
	ErrInvalidElevationDelta  = errors.New("invalid elevation delta")
	ErrTrailingElevationData  = errors.New("trailing bytes after elevation data")
)

// Elevation holds a decoded tile: the 256x256 grid and the max-elevation
// quadtree built over it.
//
// Nodes[0] is the maximum of the whole tile; the four quadrants of node n are
// at 4n+1..4n+4 in the order lower-left, upper-left, lower-right, upper-right.
// Leaves start at NumQuadrants and are addressed by LeafIndex.
type Elevation struct {
	// Grid is row-major by height, row 0 at the southern edge.
	Grid  [GridCells]uint16
	Nodes [NumNodes]uint16
}

// LeafIndex interleaves height and width into a leaf-relative quadtree
// index: bit 2k holds bit k of height and bit 2k+1 holds bit k of width.
func LeafIndex(height, width int) int {
	index := 0
	for shift := 0; shift < QuadtreeLevels; shift++ {
		index |= ((height >> shift) & 1) << (2 * shift)
		index |= ((width >> shift) & 1) << (2*shift + 1)
	}
	return index
}

// LeafHeight extracts the grid height from a leaf-relative index.
func LeafHeight(index int) int {
	height := 0
	for shift := 0; shift < QuadtreeLevels; shift++ {
		height |= ((index >> (2 * shift)) & 1) << shift
	}
	return height
}

// LeafWidth extracts the grid width from a leaf-relative index.
func LeafWidth(index int) int {
	width := 0
	for shift := 0; shift < QuadtreeLevels; shift++ {
		width |= ((index >> (2*shift + 1)) & 1) << shift
	}
	return width
}

// IsLeaf reports whether node is in the leaf layer.
func IsLeaf(node int) bool {
	return node >= NumQuadrants
}

// Leaf returns the quadtree value for grid point (height, width).
func (e *Elevation) Leaf(height, width int) uint16 {
	return e.Nodes[NumQuadrants+LeafIndex(height, width)]
}

// HeightAt returns the grid elevation at (height, width).
func (e *Elevation) HeightAt(height, width int) uint16 {
	return e.Grid[height*GridSize+width]
}

// Max returns the highest elevation in the tile.
func (e *Elevation) Max() uint16 {
	return e.Nodes[0]
}

// Min returns the lowest elevation in the tile.
func (e *Elevation) Min() uint16 {
	min := e.Grid[0]
	for _, v := range e.Grid {
		if v < min {
			min = v
		}
	}
	return min
}

// ParseELV decodes an ELV byte stream and builds the elevation quadtree.
// A nil buffer means the tile has no elevation data.
func ParseELV(data []byte) (*Elevation, error) {
	if data == nil {
		return nil, ErrMissingElevationData
	}

	d := deltaDecoder{data: data}
	elv := &Elevation{}

	last := int32(0)
	for height := 0; height < GridSize; height++ {
		for width := 0; width < GridSize; width++ {
			delta, err := d.next()
			if err != nil {
				return nil, fmt.Errorf("decoding point (%d, %d): %w", height, width, err)
			}
			last += delta
			if last < 0 || last > 0xffff {
				return nil, fmt.Errorf("%w: %d at point (%d, %d)", ErrElevationOutOfRange, last, height, width)
			}
			v := uint16(last)
			elv.Grid[height*GridSize+width] = v
			elv.Nodes[NumQuadrants+LeafIndex(height, width)] = v
		}
	}

	if rest := len(data) - d.pos; rest > 0 {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrTrailingElevationData, rest, d.pos)
	}

	elv.buildQuadtree()
	return elv, nil
}

// ParseELVFile decodes an ELV file from disk.
func ParseELVFile(path string) (*Elevation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ELV file: %w", err)
	}
	return ParseELV(data)
}

// buildQuadtree fills interior nodes from the leaves up. Children always have
// higher indices than their parent, so a descending pass sees them finished.
func (e *Elevation) buildQuadtree() {
	for i := NumQuadrants - 1; i >= 0; i-- {
		c := i*4 + 1
		e.Nodes[i] = max(e.Nodes[c], e.Nodes[c+1], e.Nodes[c+2], e.Nodes[c+3])
	}
}

// ElevationFromGrid builds an Elevation from a grid without going through
// the byte encoding.
func ElevationFromGrid(grid *[GridCells]uint16) *Elevation {
	elv := &Elevation{Grid: *grid}
	for height := 0; height < GridSize; height++ {
		for width := 0; width < GridSize; width++ {
			elv.Nodes[NumQuadrants+LeafIndex(height, width)] = grid[height*GridSize+width]
		}
	}
	elv.buildQuadtree()
	return elv
}

type deltaDecoder struct {
	data []byte
	pos  int
}

func (d *deltaDecoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, ErrTruncatedElevationData
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

// next decodes one delta. A byte other than 0xff terminates the value with
// its offset-127 payload; 0xff is followed by one raw byte of the value.
func (d *deltaDecoder) next() (int32, error) {
	var diff int32
	shift := 0
	for {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if shift >= 32 {
			return 0, fmt.Errorf("%w: longer than 32 bits at byte %d", ErrInvalidElevationDelta, d.pos)
		}
		if b != 0xff {
			diff |= (int32(b) - 127) << shift
			return diff, nil
		}
		b, err = d.readByte()
		if err != nil {
			return 0, err
		}
		diff |= int32(b) << shift
		shift += 8
	}
}

// WriteDelta appends the encoding of one delta to buf.
func WriteDelta(buf *bytes.Buffer, delta int32) {
	for delta < -127 || delta > 127 {
		buf.WriteByte(0xff)
		buf.WriteByte(byte(delta))
		delta >>= 8
	}
	buf.WriteByte(byte(delta + 127))
}

// EncodeELV writes grid as an ELV byte stream.
func EncodeELV(w io.Writer, grid *[GridCells]uint16) error {
	var buf bytes.Buffer
	buf.Grow(GridCells)

	last := int32(0)
	for _, v := range grid {
		WriteDelta(&buf, int32(v)-last)
		last = int32(v)
	}

	_, err := buf.WriteTo(w)
	return err
}

// MarshalELV returns grid as an ELV byte stream.
func MarshalELV(grid *[GridCells]uint16) []byte {
	var buf bytes.Buffer
	_ = EncodeELV(&buf, grid)
	return buf.Bytes()
}
