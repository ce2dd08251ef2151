package main

import (
	"github.com/scanforge/scanforge/cmd"
)

func main() {
	cmd.Execute()
}
