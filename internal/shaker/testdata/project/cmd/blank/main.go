package main

import (
	_ "example.com/app/util"
)

func main() {}
