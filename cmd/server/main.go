package main

import "go-project-finance/internal/cli"

func main() {
	cli.Execute()
}
