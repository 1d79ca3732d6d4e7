package main

import "render-queue/internal/cli"

func main() {
	cli.Execute()
}
