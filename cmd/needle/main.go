package main

import "github.com/tessro/needle/internal/cli"

func main() {
	cli.Execute()
}
