// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for cross-source search:
//  1. [QueryView] : Enter a free-text query
//  2. [ResultListView] : Watch results stream in per source and pick a song
//  3. [DetailView] : Inspect the resolved playback URL
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Result batches flow through the aggregation channel and are pumped into the
// program as messages, so the list fills in as each source answers rather than
// waiting for the slowest one.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
