package blocks

// Grid is the storage block: width x height cells kept in one flat array.
// All the element accesses go through At.
type Grid[T any] struct {
	cells []T
}

// NewGrid allocates the grid. Shape must be validated by the caller.
func NewGrid[T any](shape Shape) Grid[T] {
	return Grid[T]{
		cells: make([]T, shape.Capacity()),
	}
}

// Len returns the number of cells.
func (g *Grid[T]) Len() int {
	return len(g.cells)
}

// At returns the cell stored under flat index.
func (g *Grid[T]) At(index int) *T {
	return &g.cells[index]
}

// Cells returns the flat array. It must not be modified by the caller.
func (g *Grid[T]) Cells() []T {
	return g.cells
}

// Reset zeroes all the cells.
func (g *Grid[T]) Reset() {
	clear(g.cells)
}
