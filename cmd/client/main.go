package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nappernick/mcp-wrapper/pkg/client"
)

func main() {
	urlFlag := flag.String("url", "http://localhost:8080", "server url")
	commandFlag := flag.String("command", "", "server command for stdio mode")
	resolveFlag := flag.Bool("resolve", false, "resolve tool calls server-side")

	flag.Parse()

	ctx := context.Background()

	var c *client.Client

	if *commandFlag != "" {
		args := strings.Fields(*commandFlag)

		val, err := client.NewCommand(args[0], args[1:]...)

		if err != nil {
			panic(err)
		}

		c = val
	} else {
		c = client.New(*urlFlag)
	}

	defer c.Close()

	chat(ctx, c, *resolveFlag)
}

func chat(ctx context.Context, c *client.Client, resolve bool) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

	var messages []client.Message

	for {
		output.WriteString(">>> ")

		input, err := reader.ReadString('\n')

		if err != nil {
			return
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue
		}

		if resolve {
			messages = append(messages, client.Message{Role: "user", Content: input})

			answer, err := c.ResolveWithTools(ctx, messages, nil, nil)

			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}

			messages = append(messages, client.Message{Role: "assistant", Content: answer})

			output.WriteString(answer)
			output.WriteString("\n")

			continue
		}

		answer, err := c.Generate(ctx, input, nil)

		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}

		output.WriteString(answer)
		output.WriteString("\n")
	}
}
