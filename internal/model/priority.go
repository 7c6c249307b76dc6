package model

import "fmt"

// Priority governs how soon after discovery an application is submitted.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}
