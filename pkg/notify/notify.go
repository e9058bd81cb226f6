// Package notify is the optional notification collaborator used by the
// download and install pipelines. Components take a Notifier and tolerate nil.
package notify

import (
	"fmt"
)

type Notifier interface {
	Info(title, message string)
	Success(title, message string)
	Error(title, message string)
}

// Console writes notifications as marked console lines.
type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Info(title, message string) {
	fmt.Printf("[i] %s: %s\n", title, message)
}

func (c *Console) Success(title, message string) {
	fmt.Printf("[+] %s: %s\n", title, message)
}

func (c *Console) Error(title, message string) {
	fmt.Printf("[!] %s: %s\n", title, message)
}

// Info sends through n when it is present.
func Info(n Notifier, title, message string) {
	if n != nil {
		n.Info(title, message)
	}
}

func Success(n Notifier, title, message string) {
	if n != nil {
		n.Success(title, message)
	}
}

func Error(n Notifier, title, message string) {
	if n != nil {
		n.Error(title, message)
	}
}
