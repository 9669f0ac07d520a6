package main

import "github.com/scienceol/gogvault/cmd"

func main() {
	cmd.Execute()
}
