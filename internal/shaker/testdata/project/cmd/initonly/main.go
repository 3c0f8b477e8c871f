package main

import (
	"fmt"

	"example.com/app/util"
)

func init() {
	fmt.Println(util.Multiply(2, 2))
}

func main() {}
