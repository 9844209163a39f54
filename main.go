package main

import "github.com/nijaru/yt-summary/cmd"

func main() {
	cmd.Execute()
}
