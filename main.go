package main

import "github.com/rohanku/release-please/cmd"

func main() {
	cmd.Execute()
}
