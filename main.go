package main

import "canopy/arbor/cmd"

func main() {
	cmd.Execute()
}
