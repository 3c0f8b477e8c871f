// Package main greets its arguments using only fixture.Greet, so the rest
// of the fixture is dead code in this program.
package main

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/shaker/fixture"
)

func main() {
	name := "World"
	if len(os.Args) > 1 {
		name = strings.Join(os.Args[1:], " ")
	}

	fmt.Println(fixture.Greet(name))
}
