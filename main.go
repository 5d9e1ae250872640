package main

import "github.com/jfmyers9/songstitch/cmd"

func main() {
	cmd.Execute()
}
