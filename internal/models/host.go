package models

import (
	"fmt"
	"time"
)

// Host is a monitored database host. Owned by the surrounding inventory;
// the silencing engine only reads it.
type Host struct {
	ID        int       `json:"id"`
	Hostname  string    `json:"hostname"`
	Port      int       `json:"port"`
	CreatedAt time.Time `json:"created_at"`
}

// Addr returns the host as "hostname:port" for display.
func (h Host) Addr() string {
	return fmt.Sprintf("%s:%d", h.Hostname, h.Port)
}

// HostGroup is a named set of hosts, identified by a short tag.
type HostGroup struct {
	ID        int       `json:"id"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}
