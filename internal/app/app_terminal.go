package app

import (
	"errors"
)

// ============================================================
// Embedded Terminal (external editor for node text)
// ============================================================

var errNoEditor = errors.New("editor unavailable: file watcher failed to start")

// TerminalWrite sends input from xterm.js to the PTY.
func (a *App) TerminalWrite(data string) error {
	if a.term == nil {
		return errNotReady
	}
	return a.term.Write(data)
}

// TerminalResize resizes the PTY.
func (a *App) TerminalResize(cols, rows int) error {
	if a.term == nil {
		return errNotReady
	}
	return a.term.Resize(uint16(cols), uint16(rows))
}

// OpenNodeInEditor opens the node's description in the configured editor.
// The text is stored back into the node when the editor exits.
func (a *App) OpenNodeInEditor(nodeID string) error {
	if a.editor == nil {
		return errNoEditor
	}
	return a.editor.OpenNode(nodeID)
}

// CloseEditor ends the editor session and discards the draft.
func (a *App) CloseEditor() {
	if a.editor != nil {
		a.editor.Close()
	}
}

func (a *App) EditorStatus() EditorStatus {
	if a.editor == nil {
		return EditorStatus{}
	}
	nodeID, editing := a.editor.Editing()
	return EditorStatus{Editing: editing, NodeID: nodeID}
}
