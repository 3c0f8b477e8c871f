package main

import (
	"fmt"

	"example.com/app/util"
)

func main() {
	fmt.Println(util.Multiply(util.Add(2, 3), 4))
}
