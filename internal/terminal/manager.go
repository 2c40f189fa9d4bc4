// Package terminal runs an external text editor inside a PTY.
package terminal

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creack/pty"
)

// DefaultEditor is used when neither the configuration nor $EDITOR names one.
const DefaultEditor = "nvim"

// Manager owns at most one editor session. Output is streamed to onData;
// a new session closes the previous one.
type Manager struct {
	mu        sync.Mutex
	ptmx      *os.File
	cmd       *exec.Cmd
	session   uint64
	onData    func(data []byte)
	running   bool
	editor    []string
	cols      uint16
	rows      uint16
	shellPath string
}

// resolveEditor finds the absolute path for the editor binary. Desktop apps
// don't inherit the login shell's $PATH, so common install prefixes are
// probed as a fallback.
func resolveEditor(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	candidates := []string{
		filepath.Join("/opt/homebrew/bin", name),
		filepath.Join("/usr/local/bin", name),
		filepath.Join("/run/current-system/sw/bin", name),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".local/bin", name),
			filepath.Join(home, ".nix-profile/bin", name),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return name
}

// resolveShellPath returns the user's login shell PATH so the editor's
// child processes find installed tools.
func resolveShellPath() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	out, err := exec.Command(shell, "-lc", "echo $PATH").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// EditorCommand picks the editor: the configured command, then $EDITOR,
// then DefaultEditor. The command may carry arguments ("code --wait").
func EditorCommand(configured string) []string {
	cmd := strings.TrimSpace(configured)
	if cmd == "" {
		cmd = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if cmd == "" {
		cmd = DefaultEditor
	}
	fields := strings.Fields(cmd)
	fields[0] = resolveEditor(fields[0])
	return fields
}

func New(editor []string, onData func(data []byte)) *Manager {
	if len(editor) == 0 {
		editor = EditorCommand("")
	}
	return &Manager{
		onData:    onData,
		editor:    editor,
		cols:      80,
		rows:      24,
		shellPath: resolveShellPath(),
	}
}

// OpenFile starts the editor on path. onExit runs once the editor process
// has exited on its own; it does not run for sessions closed by Close or
// replaced by another OpenFile.
func (m *Manager) OpenFile(path string, onExit func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.closeInternal()
	}

	args := append(append([]string{}, m.editor[1:]...), path)
	cmd := exec.Command(m.editor[0], args...)
	cmd.Env = m.environ()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: m.cols, Rows: m.rows})
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}

	m.session++
	session := m.session
	m.ptmx = ptmx
	m.cmd = cmd
	m.running = true

	go func() {
		buf := make([]byte, 32768)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 && m.onData != nil {
				data := make([]byte, n)
				copy(data, buf[:n])
				m.onData(data)
			}
			if err != nil {
				break
			}
		}
		_ = cmd.Wait()

		m.mu.Lock()
		current := m.session == session && m.running
		if current {
			m.running = false
			m.ptmx.Close()
			m.ptmx = nil
			m.cmd = nil
		}
		m.mu.Unlock()
		if current && onExit != nil {
			onExit()
		}
	}()

	return nil
}

func (m *Manager) environ() []string {
	env := os.Environ()
	if m.shellPath != "" {
		replaced := false
		for i, e := range env {
			if strings.HasPrefix(e, "PATH=") {
				env[i] = "PATH=" + m.shellPath
				replaced = true
				break
			}
		}
		if !replaced {
			env = append(env, "PATH="+m.shellPath)
		}
	}
	return append(env, "TERM=xterm-256color", "COLORTERM=truecolor")
}

// Write sends keystrokes to the editor.
func (m *Manager) Write(data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running || m.ptmx == nil {
		return fmt.Errorf("no active terminal session")
	}
	_, err := io.WriteString(m.ptmx, data)
	return err
}

// Resize updates the PTY window size; the size is remembered for the next
// session.
func (m *Manager) Resize(cols, rows uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cols = cols
	m.rows = rows
	if !m.running || m.ptmx == nil {
		return nil
	}
	return pty.Setsize(m.ptmx, &pty.Winsize{Cols: cols, Rows: rows})
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeInternal()
}

func (m *Manager) closeInternal() {
	m.running = false
	if m.ptmx != nil {
		m.ptmx.Close()
		m.ptmx = nil
	}
	if m.cmd != nil && m.cmd.Process != nil {
		m.cmd.Process.Kill()
		m.cmd = nil
	}
}
