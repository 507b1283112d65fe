package main

import "github.com/vietddude/solgate/internal/cli"

func main() {
	cli.Execute()
}
