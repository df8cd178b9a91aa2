package main

import "github.com/dubalot/dubalot/internal/cli"

func main() {
	cli.Main()
}
