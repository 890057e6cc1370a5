package main

import (
	"github.com/Laisky/laisky-portfolio/cmd"
)

func main() {
	cmd.Execute()
}
