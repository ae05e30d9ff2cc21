package main

import "purchase-patterns/internal/cli"

func main() {
	cli.Execute()
}
