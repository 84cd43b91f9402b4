package server

import (
	"bytes"
	"strings"
	"sync"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// Console is a log sink that fans log lines out to the consoles of active renders
type Console struct {
	mu          sync.Mutex
	subscribers map[chan ConsoleMessage]struct{}
	partial     bytes.Buffer
}

// NewConsole creates a console with no subscribers
func NewConsole() *Console {
	return &Console{subscribers: make(map[chan ConsoleMessage]struct{})}
}

// Subscribe returns a channel receiving every complete log line, and a
// function that stops delivery
func (c *Console) Subscribe(buffer int) (<-chan ConsoleMessage, func()) {
	ch := make(chan ConsoleMessage, buffer)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		delete(c.subscribers, ch)
		c.mu.Unlock()
	}
}

// Write implements io.Writer. Lines are delivered once terminated by a newline.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.partial.Write(p)
	for {
		line, err := c.partial.ReadString('\n')
		if err != nil {
			// Keep the unterminated tail for the next write
			c.partial.Reset()
			c.partial.WriteString(line)
			break
		}
		c.publish(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (c *Console) publish(line string) {
	msg := ConsoleMessage{Message: line, Timestamp: time.Now(), Level: levelOf(line)}
	for ch := range c.subscribers {
		select {
		case ch <- msg:
		default:
			// Subscriber is behind, drop the line
		}
	}
}

// levelOf reads the level from a formatted log line
func levelOf(line string) string {
	switch {
	case strings.Contains(line, "[ERROR]"), strings.Contains(line, "[CRITICAL]"):
		return "error"
	case strings.Contains(line, "[WARNING]"):
		return "warning"
	}
	return "info"
}
