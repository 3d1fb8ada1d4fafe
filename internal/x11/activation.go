package x11

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/xgb/xproto"
)

const (
	startupInfoBegin = "_NET_STARTUP_INFO_BEGIN"
	startupInfo      = "_NET_STARTUP_INFO"
)

// RequestActivationToken starts a startup-notification sequence for a window
// titled title and returns its ID, which serves as the activation token.
func (c *Connection) RequestActivationToken(title string) (string, error) {
	token := newStartupID(time.Now())
	msg := StartupMessage("new", [][2]string{
		{"ID", token},
		{"NAME", title},
		{"SCREEN", fmt.Sprint(c.Conn().DefaultScreen)},
	})
	if err := c.SendStringMessage(c.XUtil.Dummy(), startupInfoBegin, startupInfo, msg).Check(); err != nil {
		return "", fmt.Errorf("failed to send startup notification: %w", err)
	}
	return token, nil
}

// RemoveActivationToken ends the startup-notification sequence for token,
// telling the launcher the window has appeared.
func (c *Connection) RemoveActivationToken(win xproto.Window, token string) Cookie {
	msg := StartupMessage("remove", [][2]string{{"ID", token}})
	return c.SendStringMessage(win, startupInfoBegin, startupInfo, msg)
}

func newStartupID(now time.Time) string {
	name := filepath.Base(os.Args[0])
	return fmt.Sprintf("%s%d_TIME%d", name, os.Getpid(), now.Unix())
}

// StartupMessage formats a startup-notification message. Values containing
// spaces, quotes or backslashes are quoted and escaped.
func StartupMessage(kind string, fields [][2]string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteString(":")
	for _, kv := range fields {
		b.WriteString(" ")
		b.WriteString(kv[0])
		b.WriteString("=")
		b.WriteString(quoteStartupValue(kv[1]))
	}
	return b.String()
}

func quoteStartupValue(v string) string {
	if !strings.ContainsAny(v, " \"\\") {
		return v
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range v {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
