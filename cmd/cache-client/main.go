package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/leonardcser/kvcache/internal/client"
	"github.com/leonardcser/kvcache/internal/config"
)

// A minimal interactive client: every line typed is sent as-is and the raw
// reply is printed. "exit" quits without contacting the server.
//
//	$ kvcache-client
//	SET x hello
//	OK
//	GET x
//	hello
func main() {
	addr := config.ClientAddr()
	c, err := client.Dial(addr, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to server at %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer c.Close()

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if strings.EqualFold(line, "exit") {
			return
		}
		if line == "" {
			// The server sends nothing back for a blank message.
			continue
		}
		reply, err := c.Do(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Println(reply)
	}
	if err := in.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read from stdin: %v\n", err)
		os.Exit(1)
	}
}
