package main

import "github.com/edittrail/edittrail/cmd"

func main() {
	cmd.Execute()
}
