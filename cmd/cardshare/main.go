package main

import "cardshare/internal/cli"

func main() {
	cli.Execute()
}
