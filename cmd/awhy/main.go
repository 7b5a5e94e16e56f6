package main

import "github.com/samvad-hq/areweheadlessyet/cmd/awhy/cmd"

func main() {
	cmd.Execute()
}
