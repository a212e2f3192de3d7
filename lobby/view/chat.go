package view

import (
	"fmt"
	"io"

	"github.com/wricardo/halfway/lobby/protocol"
)

// NoMessages is shown when the chat history is empty
const NoMessages = "No messages yet."

// ChatPanel holds the lobby chat history as last broadcast
type ChatPanel struct {
	lines []protocol.ChatEntry
}

// Replace swaps in a new history. Order is kept and duplicates are not removed.
func (c *ChatPanel) Replace(messages []protocol.ChatEntry) {
	c.lines = append([]protocol.ChatEntry(nil), messages...)
}

// Lines returns a copy of the history
func (c *ChatPanel) Lines() []protocol.ChatEntry {
	return append([]protocol.ChatEntry(nil), c.lines...)
}

// Line returns the entry at index i
func (c *ChatPanel) Line(i int) (protocol.ChatEntry, bool) {
	if i < 0 || i >= len(c.lines) {
		return protocol.ChatEntry{}, false
	}
	return c.lines[i], true
}

// Len returns the number of lines
func (c *ChatPanel) Len() int {
	return len(c.lines)
}

// Render writes one numbered line per message; the number is what "speak" takes
func (c *ChatPanel) Render(w io.Writer) error {
	if len(c.lines) == 0 {
		_, err := fmt.Fprintln(w, NoMessages)
		return err
	}
	for i, m := range c.lines {
		if _, err := fmt.Fprintf(w, "[%d] %s: %s\n", i+1, m.Name, m.Text); err != nil {
			return err
		}
	}
	return nil
}
