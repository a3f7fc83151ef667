package main

import "dirhunter/cmd"

func main() {
	cmd.Execute()
}
