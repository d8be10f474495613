package main

import "github.com/shortreel/shortreel/internal/cli"

func main() {
	cli.Main()
}
