package main

import "github.com/theirongolddev/fundwise/cmd"

func main() {
	cmd.Execute()
}
