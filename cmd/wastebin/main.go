// Command wastebin tracks waste bins and their fill levels from an
// interactive console menu.
package main

import "github.com/mesh-intelligence/wastebin/internal/cli"

func main() {
	cli.Execute()
}
