// Package fixture provides a small set of pure functions used to exercise
// dead-code elimination in build pipelines.
package fixture

// Bundle groups the package functions behind a single handle.
type Bundle struct {
	Greet    func(name string) string
	Add      func(a, b float64) float64
	Multiply func(a, b float64) float64
}

var defaultBundle = Bundle{
	Greet:    Greet,
	Add:      Add,
	Multiply: Multiply,
}

// Greet returns a greeting for name.
func Greet(name string) string {
	return "Hello, " + name + "!"
}

// Add returns the sum of a and b.
func Add(a, b float64) float64 {
	return a + b
}

// Multiply returns the product of a and b.
func Multiply(a, b float64) float64 {
	return a * b
}

// Default returns the bundle of all package functions.
// The returned value is a copy; the shared bundle is never mutated.
func Default() Bundle {
	return defaultBundle
}
