package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"violet/internal/ipc"
)

func main() {
	socketPath := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		fmt.Println("usage: violet-ctl [--socket path] toggle | say <text> | send | mute")
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: args[0]}
	if msg.Cmd == "say" {
		msg.Arg = strings.Join(args[1:], " ")
	}

	if err := ipc.Send(*socketPath, msg); err != nil {
		fmt.Println("violet-daemon not running:", err)
		os.Exit(1)
	}
}
