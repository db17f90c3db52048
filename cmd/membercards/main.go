package main

import "github.com/clubmontagne/membercards/internal/cli"

func main() {
	cli.Execute()
}
