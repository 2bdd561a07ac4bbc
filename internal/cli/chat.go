package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long:  "Interactive conversation loop against a running workagent server. Type /quit to exit, /clear to archive and reset the conversation, /save <title> to name the current chat.",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	client := newAPIClient()
	if !client.Healthy() {
		return fmt.Errorf("no server at %s — start one with `workagent serve`", client.serverURL)
	}

	fmt.Println("Connected. /quit to exit, /clear to reset, /save <title> to name this chat.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/clear":
			if _, err := client.Post("/api/history/clear", []byte("{}")); err != nil {
				fmt.Fprintf(os.Stderr, "clear: %v\n", err)
				continue
			}
			fmt.Println("Conversation archived and cleared.")
			continue
		case strings.HasPrefix(line, "/save "):
			title := strings.TrimSpace(strings.TrimPrefix(line, "/save "))
			body, _ := json.Marshal(map[string]string{"title": title})
			if _, err := client.Post("/api/chats", body); err != nil {
				fmt.Fprintf(os.Stderr, "save: %v\n", err)
				continue
			}
			fmt.Printf("Saved as %q.\n", title)
			continue
		}

		body, _ := json.Marshal(map[string]string{"message": line})
		data, err := client.Post("/api/chat", body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chat: %v\n", err)
			continue
		}

		var resp struct {
			Reply string `json:"reply"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "decode reply: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", resp.Reply)
	}
}
