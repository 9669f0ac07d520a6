//go:build linux

package power

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"golang.org/x/sys/unix"
)

const (
	// org.gnome.SessionManager.Inhibit flags
	gnomeInhibitSuspend = 4
	gnomeInhibitIdle    = 8
)

// hasMethod reports whether the introspected object exposes iface.method.
func hasMethod(node *introspect.Node, iface, method string) bool {
	if node == nil {
		return false
	}
	for _, i := range node.Interfaces {
		if i.Name != iface {
			continue
		}
		for _, m := range i.Methods {
			if m.Name == method {
				return true
			}
		}
	}
	return false
}

// probe connects to the bus and checks that dest implements iface.method
// before anything relies on it.
func probe(system bool, dest string, path dbus.ObjectPath, iface, method string) (*dbus.Conn, dbus.BusObject, error) {
	connect := dbus.ConnectSessionBus
	if system {
		connect = dbus.ConnectSystemBus
	}
	conn, err := connect()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: connect bus: %v", ErrInhibitorUnavailable, err)
	}

	obj := conn.Object(dest, path)
	node, err := introspect.Call(obj)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: introspect %s: %v", ErrInhibitorUnavailable, dest, err)
	}
	if !hasMethod(node, iface, method) {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: %s has no method %s", ErrInhibitorUnavailable, iface, method)
	}
	return conn, obj, nil
}

// logindInhibitor takes a "block" inhibitor lock from systemd-logind on the
// system bus. The lock is the returned file descriptor; closing it releases.
type logindInhibitor struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	fd   int
}

func newLogindInhibitor() (Inhibitor, error) {
	conn, obj, err := probe(true, "org.freedesktop.login1", "/org/freedesktop/login1", "org.freedesktop.login1.Manager", "Inhibit")
	if err != nil {
		return nil, err
	}
	return &logindInhibitor{conn: conn, obj: obj, fd: -1}, nil
}

func (l *logindInhibitor) Name() string {
	return "logind"
}

func (l *logindInhibitor) Inhibit(kind Assertion) error {
	var fd dbus.UnixFD
	err := l.obj.Call("org.freedesktop.login1.Manager.Inhibit", 0, logindInhibitArgs(kind)...).Store(&fd)
	if err != nil {
		return err
	}
	l.fd = int(fd)
	return nil
}

func logindInhibitArgs(kind Assertion) []interface{} {
	return []interface{}{inhibitWhat(kind), appName, reason, "block"}
}

func (l *logindInhibitor) Release() error {
	if l.fd < 0 {
		return nil
	}
	err := unix.Close(l.fd)
	l.fd = -1
	return err
}

// cookieInhibitor covers the session-bus managers that hand out a uint32
// cookie on Inhibit and take it back on their uninhibit method. The session
// bus connection has to stay open: they drop inhibitors of vanished clients.
type cookieInhibitor struct {
	name      string
	conn      *dbus.Conn
	obj       dbus.BusObject
	iface     string
	uninhibit string
	args      func(kind Assertion) []interface{}
	cookie    uint32
	held      bool
}

func (c *cookieInhibitor) Name() string {
	return c.name
}

func (c *cookieInhibitor) Inhibit(kind Assertion) error {
	var cookie uint32
	if err := c.obj.Call(c.iface+".Inhibit", 0, c.args(kind)...).Store(&cookie); err != nil {
		return err
	}
	c.cookie = cookie
	c.held = true
	return nil
}

func (c *cookieInhibitor) Release() error {
	if !c.held {
		return nil
	}
	c.held = false
	return c.obj.Call(c.iface+"."+c.uninhibit, 0, c.cookie).Err
}

func newGnomeSessionInhibitor() (Inhibitor, error) {
	const iface = "org.gnome.SessionManager"
	conn, obj, err := probe(false, iface, "/org/gnome/SessionManager", iface, "Inhibit")
	if err != nil {
		return nil, err
	}
	return &cookieInhibitor{
		name:      "gnome-session",
		conn:      conn,
		obj:       obj,
		iface:     iface,
		uninhibit: "Uninhibit",
		args: func(kind Assertion) []interface{} {
			flags := uint32(gnomeInhibitSuspend)
			if kind == NoDisplaySleep {
				flags |= gnomeInhibitIdle
			}
			// no toplevel window
			return []interface{}{appName, uint32(0), reason, flags}
		},
	}, nil
}

func newFreedesktopPowerInhibitor() (Inhibitor, error) {
	const iface = "org.freedesktop.PowerManagement.Inhibit"
	conn, obj, err := probe(false, "org.freedesktop.PowerManagement", "/org/freedesktop/PowerManagement/Inhibit", iface, "Inhibit")
	if err != nil {
		return nil, err
	}
	return &cookieInhibitor{
		name:      "freedesktop-power",
		conn:      conn,
		obj:       obj,
		iface:     iface,
		uninhibit: "UnInhibit",
		args: func(Assertion) []interface{} {
			return []interface{}{appName, reason}
		},
	}, nil
}
