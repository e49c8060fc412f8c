//go:build linux

package sources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	ibusBusName = "org.freedesktop.IBus"
	ibusPath    = "/org/freedesktop/IBus"
	ibusIface   = "org.freedesktop.IBus"
)

// ibusDirectory talks to the IBus daemon over its private bus. Engine
// names ("xkb:us::eng", "anthy", ...) serve as the stable identifiers.
type ibusDirectory struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func NewDirectory() Directory {
	return &ibusDirectory{}
}

// ibusAddress resolves the daemon's private bus address: IBUS_ADDRESS
// wins, otherwise the per-display socket file IBus writes under
// ~/.config/ibus/bus.
func ibusAddress() (string, error) {
	if addr := os.Getenv("IBUS_ADDRESS"); addr != "" {
		return addr, nil
	}

	machineID, err := readMachineID()
	if err != nil {
		return "", err
	}

	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0"
	}
	// ":0.0" and "host:0" both map to socket suffix "0".
	display = display[strings.IndexByte(display, ':')+1:]
	if i := strings.IndexByte(display, '.'); i >= 0 {
		display = display[:i]
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}

	path := filepath.Join(configDir, "ibus", "bus", machineID+"-unix-"+display)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ibus bus file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if addr, ok := strings.CutPrefix(line, "IBUS_ADDRESS="); ok {
			return strings.TrimSpace(addr), nil
		}
	}
	return "", errors.New("ibus bus file has no IBUS_ADDRESS line")
}

func readMachineID() (string, error) {
	for _, p := range []string{"/var/lib/dbus/machine-id", "/etc/machine-id"} {
		data, err := os.ReadFile(p)
		if err == nil {
			return strings.TrimSpace(string(data)), nil
		}
	}
	return "", errors.New("machine-id not found")
}

func (d *ibusDirectory) object() (dbus.BusObject, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		addr, err := ibusAddress()
		if err != nil {
			return nil, err
		}
		conn, err := dbus.Connect(addr)
		if err != nil {
			return nil, fmt.Errorf("connect ibus: %w", err)
		}
		d.conn = conn
	}
	return d.conn.Object(ibusBusName, ibusPath), nil
}

// dropConn forgets a connection after an error so the next call redials;
// the daemon restarts whenever the user reconfigures input methods.
func (d *ibusDirectory) dropConn() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// engineDescSource pulls name/longname out of a serialized IBusEngineDesc:
// a struct of ("IBusEngineDesc", attachments, name, longname, ...).
func engineDescSource(v interface{}) (Source, bool) {
	fields, ok := v.([]interface{})
	if !ok || len(fields) < 4 {
		return Source{}, false
	}
	id, ok := fields[2].(string)
	if !ok || id == "" {
		return Source{}, false
	}
	name, _ := fields[3].(string)
	if name == "" {
		name = id
	}
	return Source{ID: id, Name: name, Selectable: true}, true
}

func (d *ibusDirectory) List() ([]Source, error) {
	obj, err := d.object()
	if err != nil {
		return nil, err
	}

	var engines []dbus.Variant
	if err := obj.Call(ibusIface+".ListActiveEngines", 0).Store(&engines); err != nil {
		d.dropConn()
		return nil, fmt.Errorf("list engines: %w", err)
	}

	var out []Source
	for _, v := range engines {
		if s, ok := engineDescSource(v.Value()); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *ibusDirectory) Current() (Source, error) {
	obj, err := d.object()
	if err != nil {
		return Source{}, err
	}

	prop, err := obj.GetProperty(ibusIface + ".GlobalEngine")
	if err != nil {
		d.dropConn()
		return Source{}, fmt.Errorf("global engine: %w", err)
	}

	inner := prop.Value()
	if v, ok := inner.(dbus.Variant); ok {
		inner = v.Value()
	}
	s, ok := engineDescSource(inner)
	if !ok {
		return Source{}, errors.New("global engine: unexpected reply shape")
	}
	return s, nil
}

func (d *ibusDirectory) Activate(id string) error {
	obj, err := d.object()
	if err != nil {
		return err
	}

	if err := obj.Call(ibusIface+".SetGlobalEngine", 0, id).Err; err != nil {
		d.dropConn()
		return fmt.Errorf("set global engine %s: %w", id, err)
	}
	return nil
}
