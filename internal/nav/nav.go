// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav tracks which dashboard panel is active.
package nav

import (
	"fmt"
	"sync"
)

// Tab identifies a dashboard panel.
type Tab string

const (
	TabIncidents Tab = "incidents"
	TabChat      Tab = "chat"
	TabMeetings  Tab = "meetings"
	TabNotices   Tab = "notices"
)

// TabInfo pairs a tab with its sidebar label.
type TabInfo struct {
	Tab   Tab
	Label string
}

var tabs = []TabInfo{
	{TabIncidents, "Security Incidents"},
	{TabChat, "Secure Chat"},
	{TabMeetings, "Briefings"},
	{TabNotices, "Directives"},
}

// Tabs returns the tabs in sidebar order.
func Tabs() []TabInfo {
	out := make([]TabInfo, len(tabs))
	copy(out, tabs)
	return out
}

// Label returns the sidebar label for t, or t itself when unknown.
func (t Tab) Label() string {
	if i := indexOf(t); i >= 0 {
		return tabs[i].Label
	}
	return string(t)
}

// Valid reports whether t is one of the known tabs.
func (t Tab) Valid() bool { return indexOf(t) >= 0 }

// Placeholder reports whether the tab's module is not implemented yet and
// renders the maintenance notice.
func (t Tab) Placeholder() bool {
	return t == TabMeetings || t == TabNotices
}

func indexOf(t Tab) int {
	for i, info := range tabs {
		if info.Tab == t {
			return i
		}
	}
	return -1
}

// Controller holds the active tab. The zero value is not usable; use New.
type Controller struct {
	mu     sync.RWMutex
	active Tab
}

// New returns a controller on the incidents tab.
func New() *Controller {
	return &Controller{active: TabIncidents}
}

// Active returns the selected tab.
func (c *Controller) Active() Tab {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// SetActive selects t. Selecting an unknown tab is a programming error and
// panics.
func (c *Controller) SetActive(t Tab) {
	if !t.Valid() {
		panic(fmt.Sprintf("nav: unknown tab %q", string(t)))
	}
	c.mu.Lock()
	c.active = t
	c.mu.Unlock()
}

// Next selects the following tab, wrapping around, and returns it.
func (c *Controller) Next() Tab { return c.step(1) }

// Prev selects the preceding tab, wrapping around, and returns it.
func (c *Controller) Prev() Tab { return c.step(-1) }

func (c *Controller) step(d int) Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.active)
	n := len(tabs)
	c.active = tabs[((i+d)%n+n)%n].Tab
	return c.active
}

// Reset returns to the incidents tab.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.active = TabIncidents
	c.mu.Unlock()
}
