//go:build linux

// Package wayland owns a Wayland clipboard selection through the
// wlr-data-control protocol and serves file lists to whoever pastes.
package wayland

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
)

var le = binary.LittleEndian

// Object ids we allocate from the client range.
const (
	idDisplay    uint32 = 1
	idRegistry   uint32 = 2
	idGlobalSync uint32 = 3
	idSeat       uint32 = 4
	idManager    uint32 = 5 // zwlr_data_control_manager_v1
	idSource     uint32 = 6 // zwlr_data_control_source_v1
	idDevice     uint32 = 7 // zwlr_data_control_device_v1
	idOwnSync    uint32 = 8
)

// Opcodes used below, per interface.
const (
	opDisplaySync        uint16 = 0
	opDisplayGetRegistry uint16 = 1
	opRegistryBind       uint16 = 0
	opManagerNewSource   uint16 = 0
	opManagerGetDevice   uint16 = 1
	opSourceOffer        uint16 = 0
	opDeviceSetSelection uint16 = 0

	evRegistryGlobal  uint16 = 0
	evCallbackDone    uint16 = 0
	evSourceSend      uint16 = 0
	evSourceCancelled uint16 = 1
)

const (
	ifaceSeat    = "wl_seat"
	ifaceManager = "zwlr_data_control_manager_v1"
)

type message struct {
	object  uint32
	opcode  uint16
	payload []byte
	fd      int // -1 when no descriptor arrived with the message
}

func (m message) closeFD() {
	if m.fd >= 0 {
		syscall.Close(m.fd) //nolint:errcheck
	}
}

type conn struct {
	fd         int
	inBuf      []byte
	pendingFds []int
}

func dial() (*conn, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return nil, fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	sockPath := display
	if !filepath.IsAbs(sockPath) {
		sockPath = filepath.Join(runtimeDir, display)
	}

	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: sockPath}); err != nil {
		syscall.Close(fd) //nolint:errcheck
		return nil, fmt.Errorf("wayland: connect %s: %w", sockPath, err)
	}
	return &conn{fd: fd}, nil
}

func (c *conn) close() {
	syscall.Close(c.fd) //nolint:errcheck
}

func (c *conn) send(object uint32, opcode uint16, args ...[]byte) error {
	body := concat(args...)
	size := 8 + len(body)
	buf := make([]byte, size)
	le.PutUint32(buf[0:], object)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], body)
	_, err := syscall.Write(c.fd, buf)
	return err
}

func (c *conn) next() (message, error) {
	for {
		if msg, ok := c.pop(); ok {
			return msg, nil
		}
		if err := c.fill(); err != nil {
			return message{fd: -1}, err
		}
	}
}

// pop takes one complete message off the input buffer.
func (c *conn) pop() (message, bool) {
	if len(c.inBuf) < 8 {
		return message{}, false
	}
	header := le.Uint32(c.inBuf[4:8])
	size := int(header >> 16)
	if size < 8 || len(c.inBuf) < size {
		return message{}, false
	}
	msg := message{
		object:  le.Uint32(c.inBuf[0:4]),
		opcode:  uint16(header & 0xffff),
		payload: append([]byte(nil), c.inBuf[8:size]...),
		fd:      -1,
	}
	c.inBuf = c.inBuf[size:]
	if len(c.pendingFds) > 0 {
		msg.fd = c.pendingFds[0]
		c.pendingFds = c.pendingFds[1:]
	}
	return msg, true
}

func (c *conn) fill() error {
	buf := make([]byte, 4096)
	oob := make([]byte, syscall.CmsgSpace(4*8))
	n, oobn, _, _, err := syscall.Recvmsg(c.fd, buf, oob, 0)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("wayland: connection closed")
	}
	c.inBuf = append(c.inBuf, buf[:n]...)

	if oobn == 0 {
		return nil
	}
	scms, err := syscall.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil
	}
	for i := range scms {
		if rights, err := syscall.ParseUnixRights(&scms[i]); err == nil {
			c.pendingFds = append(c.pendingFds, rights...)
		}
	}
	return nil
}

// roundTrip sends wl_display.sync on callback and hands every event to fn
// until the callback fires.
func (c *conn) roundTrip(callback uint32, fn func(message)) error {
	if err := c.send(idDisplay, opDisplaySync, uint32Arg(callback)); err != nil {
		return err
	}
	for {
		msg, err := c.next()
		if err != nil {
			return err
		}
		msg.closeFD()
		if msg.object == callback && msg.opcode == evCallbackDone {
			return nil
		}
		if fn != nil {
			fn(msg)
		}
	}
}

type globals struct {
	seat, manager         uint32
	haveSeat, haveManager bool
}

func (c *conn) discover() (globals, error) {
	var g globals
	if err := c.send(idDisplay, opDisplayGetRegistry, uint32Arg(idRegistry)); err != nil {
		return g, err
	}
	err := c.roundTrip(idGlobalSync, func(msg message) {
		if msg.object != idRegistry || msg.opcode != evRegistryGlobal || len(msg.payload) < 4 {
			return
		}
		name := le.Uint32(msg.payload[:4])
		iface, _, err := decodeString(msg.payload[4:])
		if err != nil {
			return
		}
		switch iface {
		case ifaceSeat:
			g.seat, g.haveSeat = name, true
		case ifaceManager:
			g.manager, g.haveManager = name, true
		}
	})
	if err != nil {
		return g, err
	}
	if !g.haveSeat {
		return g, fmt.Errorf("wayland: %s not found", ifaceSeat)
	}
	if !g.haveManager {
		return g, fmt.Errorf("wayland: %s not found (compositor lacks wlr-data-control)", ifaceManager)
	}
	return g, nil
}

type request struct {
	object uint32
	opcode uint16
	args   [][]byte
}

// claim binds the globals, offers every MIME type and takes the selection.
func (c *conn) claim(g globals, mimeTypes []string) error {
	reqs := []request{
		{idRegistry, opRegistryBind, [][]byte{uint32Arg(g.seat), stringArg(ifaceSeat), uint32Arg(1), uint32Arg(idSeat)}},
		{idRegistry, opRegistryBind, [][]byte{uint32Arg(g.manager), stringArg(ifaceManager), uint32Arg(2), uint32Arg(idManager)}},
		{idManager, opManagerNewSource, [][]byte{uint32Arg(idSource)}},
	}
	for _, mime := range mimeTypes {
		reqs = append(reqs, request{idSource, opSourceOffer, [][]byte{stringArg(mime)}})
	}
	reqs = append(reqs,
		request{idManager, opManagerGetDevice, [][]byte{uint32Arg(idDevice), uint32Arg(idSeat)}},
		request{idDevice, opDeviceSetSelection, [][]byte{uint32Arg(idSource)}},
	)

	for _, r := range reqs {
		if err := c.send(r.object, r.opcode, r.args...); err != nil {
			return err
		}
	}
	return c.roundTrip(idOwnSync, nil)
}

// Serve takes the clipboard selection and writes formats[mime] to each paste
// request until another client replaces the selection.
func Serve(formats map[string][]byte) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.close()

	g, err := c.discover()
	if err != nil {
		return err
	}

	mimeTypes := make([]string, 0, len(formats))
	for mime := range formats {
		mimeTypes = append(mimeTypes, mime)
	}
	sort.Strings(mimeTypes)

	if err := c.claim(g, mimeTypes); err != nil {
		return err
	}

	for {
		msg, err := c.next()
		if err != nil {
			// Compositor went away; nothing left to own.
			return nil
		}
		if msg.object != idSource {
			msg.closeFD()
			continue
		}
		switch msg.opcode {
		case evSourceSend:
			mime, _, _ := decodeString(msg.payload)
			if data, ok := formats[mime]; ok && msg.fd >= 0 {
				syscall.Write(msg.fd, data) //nolint:errcheck
			}
			msg.closeFD()
		case evSourceCancelled:
			msg.closeFD()
			return nil
		default:
			msg.closeFD()
		}
	}
}

func uint32Arg(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

// stringArg encodes a Wayland string: length including NUL, bytes, padding
// to 4-byte alignment.
func stringArg(s string) []byte {
	length := len(s) + 1
	padded := (length + 3) &^ 3
	buf := make([]byte, 4+padded)
	le.PutUint32(buf[0:], uint32(length))
	copy(buf[4:], s)
	return buf
}

func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(le.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	return string(data[:length-1]), data[padded:], nil
}

func concat(slices ...[]byte) []byte {
	var total int
	for _, s := range slices {
		total += len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}
