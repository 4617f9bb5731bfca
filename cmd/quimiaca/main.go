package main

import "github.com/ricksonbnd/QuimIAca/internal/cli"

func main() {
	cli.Execute()
}
