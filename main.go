package main

import "github.com/d0t0ne/dignezzz/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
