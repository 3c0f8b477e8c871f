package main

import (
	"fmt"

	"example.com/app/util"
)

var banner = util.Greet("banner")

func main() {
	fmt.Println("ready")
}
