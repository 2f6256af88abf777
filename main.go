package main

import "github.com/frahmantamala/school-records/cmd"

func main() {
	cmd.Execute()
}
