package pins

import (
	"fmt"
	"slices"

	"github.com/five82/sprinkler/internal/model"
)

// defaultNumbers are the GPIO lines wired to valves on the reference
// controller, in front-panel order.
var defaultNumbers = []int{12, 16, 20, 21, 26, 19, 13, 6, 5, 11, 9, 10, 22, 27, 17, 4}

// Catalog is the fixed, ordered list of pins the hardware can drive. It is
// immutable and safe for concurrent use.
type Catalog struct {
	numbers []int
	index   map[int]int
}

// DefaultCatalog returns the catalog of the reference controller.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(defaultNumbers)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog builds a catalog from pin numbers in display order.
func NewCatalog(numbers []int) (Catalog, error) {
	if len(numbers) == 0 {
		return Catalog{}, fmt.Errorf("pin catalog is empty")
	}
	index := make(map[int]int, len(numbers))
	for i, n := range numbers {
		if n <= 0 {
			return Catalog{}, fmt.Errorf("pin catalog: invalid pin %d", n)
		}
		if _, dup := index[n]; dup {
			return Catalog{}, fmt.Errorf("pin catalog: duplicate pin %d", n)
		}
		index[n] = i
	}
	return Catalog{numbers: slices.Clone(numbers), index: index}, nil
}

// Numbers returns the catalog's pin numbers in order.
func (c Catalog) Numbers() []int {
	return slices.Clone(c.numbers)
}

// Len returns the number of pins in the catalog.
func (c Catalog) Len() int {
	return len(c.numbers)
}

// Contains reports whether n is a catalog pin.
func (c Catalog) Contains(n int) bool {
	_, ok := c.index[n]
	return ok
}

// Defaults returns one disabled, idle, unnamed record per catalog pin.
func (c Catalog) Defaults() []model.Pin {
	out := make([]model.Pin, len(c.numbers))
	for i, n := range c.numbers {
		out[i] = defaultPin(n)
	}
	return out
}

func defaultPin(n int) model.Pin {
	return model.Pin{Number: n, IsActive: model.Bool(false), IsEnabled: model.Bool(false)}
}
