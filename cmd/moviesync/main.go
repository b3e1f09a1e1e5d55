package main

import "github.com/vietddude/moviesync/internal/cli"

func main() {
	cli.Execute()
}
