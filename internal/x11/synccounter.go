package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrNoSync is returned when the server lacks the SYNC extension.
var ErrNoSync = errors.New("sync extension not available")

const (
	syncInitialize     = 0
	syncCreateCounter  = 2
	syncDestroyCounter = 6

	syncMajorVersion = 3
	syncMinorVersion = 1
)

// The xgb release in use ships no SYNC bindings, so the requests needed
// for _NET_WM_SYNC_REQUEST are encoded here.

// syncOpcode returns the SYNC major opcode. The first call also negotiates
// the protocol version, which the server requires before any other SYNC
// request on the connection.
func (c *Connection) syncOpcode() (byte, error) {
	c.syncOnce.Do(func() {
		c.syncMajor, c.syncErr = c.initSync()
	})
	return c.syncMajor, c.syncErr
}

func (c *Connection) initSync() (byte, error) {
	const name = "SYNC"
	reply, err := xproto.QueryExtension(c.Conn(), uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query %s extension: %w", name, err)
	}
	if !reply.Present {
		return 0, ErrNoSync
	}

	cookie := c.Conn().NewCookie(true, true)
	c.Conn().NewRequest(syncInitializeRequest(reply.MajorOpcode), cookie)
	if _, err := cookie.Reply(); err != nil {
		return 0, fmt.Errorf("failed to initialize sync extension: %w", err)
	}
	return reply.MajorOpcode, nil
}

func syncInitializeRequest(major byte) []byte {
	buf := make([]byte, 8)
	buf[0] = major
	buf[1] = syncInitialize
	xgb.Put16(buf[2:], uint16(len(buf)/4))
	buf[4] = syncMajorVersion
	buf[5] = syncMinorVersion
	return buf
}

func syncCreateCounterRequest(major byte, id uint32) []byte {
	buf := make([]byte, 16)
	buf[0] = major
	buf[1] = syncCreateCounter
	xgb.Put16(buf[2:], uint16(len(buf)/4))
	xgb.Put32(buf[4:], id)
	xgb.Put32(buf[8:], 0)  // initial value, high word
	xgb.Put32(buf[12:], 0) // initial value, low word
	return buf
}

func syncDestroyCounterRequest(major byte, id uint32) []byte {
	buf := make([]byte, 8)
	buf[0] = major
	buf[1] = syncDestroyCounter
	xgb.Put16(buf[2:], uint16(len(buf)/4))
	xgb.Put32(buf[4:], id)
	return buf
}

// CreateSyncCounter creates a SYNC counter with initial value zero.
func (c *Connection) CreateSyncCounter() (uint32, error) {
	major, err := c.syncOpcode()
	if err != nil {
		return 0, err
	}
	id, err := c.Conn().NewId()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate counter id: %w", err)
	}

	cookie := c.Conn().NewCookie(true, false)
	c.Conn().NewRequest(syncCreateCounterRequest(major, id), cookie)
	if err := cookie.Check(); err != nil {
		return 0, fmt.Errorf("failed to create sync counter: %w", err)
	}
	return id, nil
}

// DestroySyncCounter frees a counter created by CreateSyncCounter.
func (c *Connection) DestroySyncCounter(id uint32) Cookie {
	major, err := c.syncOpcode()
	if err != nil {
		return errCookie(err)
	}
	cookie := c.Conn().NewCookie(true, false)
	c.Conn().NewRequest(syncDestroyCounterRequest(major, id), cookie)
	return newCookie(cookie)
}
