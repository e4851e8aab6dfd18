package main

import "github.com/Mohsinsiddi/ponzilab/cmd"

func main() {
	cmd.Execute()
}
