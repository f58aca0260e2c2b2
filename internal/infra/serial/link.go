package serial

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"

	bugst "go.bug.st/serial"

	"fanbridge/internal/application"
	"fanbridge/internal/domain"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
	StateFailed       State = "failed"
)

// PortOpener acquires the named serial device. Injected so the state machine
// is testable without hardware.
type PortOpener func(name string, baudRate int) (io.ReadWriteCloser, error)

// SystemOpener opens a real port via go.bug.st/serial.
func SystemOpener(name string, baudRate int) (io.ReadWriteCloser, error) {
	port, err := bugst.Open(name, &bugst.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("opening %s at %d baud: %w", name, baudRate, err)
	}
	return port, nil
}

// Link owns the single serial connection to the device. It is the only
// component allowed to mutate the link state. Writes are mutually exclusive
// per line; no ordering is guaranteed between racing callers beyond that.
// Recovery is manual: a failed link stays down until Retry is called.
type Link struct {
	portName string
	baudRate int
	open     PortOpener
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	port  io.ReadWriteCloser
	gen   int // reader generation; a stale reader must not clobber state
}

func NewLink(portName string, baudRate int, logger *slog.Logger) *Link {
	return NewLinkWithOpener(portName, baudRate, SystemOpener, logger)
}

func NewLinkWithOpener(portName string, baudRate int, opener PortOpener, logger *slog.Logger) *Link {
	return &Link{
		portName: portName,
		baudRate: baudRate,
		open:     opener,
		logger:   logger,
		state:    StateDisconnected,
	}
}

// Open acquires the port and starts the inbound reader. On failure the link
// transitions to Failed and the error is returned; the caller decides whether
// that is fatal (it never is for the rest of the system).
func (l *Link) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateOpen {
		return nil
	}

	l.state = StateConnecting
	l.logger.Info("opening serial link", "port", l.portName, "baud", l.baudRate)

	port, err := l.open(l.portName, l.baudRate)
	if err != nil {
		l.state = StateFailed
		l.logger.Error("serial link open failed", "port", l.portName, "error", err)
		return fmt.Errorf("serial open: %w", err)
	}

	l.port = port
	l.state = StateOpen
	l.gen++
	go l.readLoop(port, l.gen)

	l.logger.Info("serial link open", "port", l.portName)
	return nil
}

// Send writes one command as a single newline-terminated line. It returns
// false without side effects when the link is not open, and never panics or
// interleaves partial lines.
func (l *Link) Send(cmd domain.FinalCommand) bool {
	line, err := cmd.EncodeWire()
	if err != nil {
		l.logger.Error("refusing to send", "error", err)
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateOpen {
		return false
	}

	if _, err := l.port.Write(line); err != nil {
		l.logger.Error("serial write failed", "error", err)
		l.dropLocked()
		return false
	}

	l.logger.Debug("sent", "line", string(line[:len(line)-1]))
	return true
}

// Close releases the connection and transitions to Disconnected.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		l.state = StateDisconnected
		return nil
	}

	err := l.port.Close()
	l.port = nil
	l.gen++
	l.state = StateDisconnected
	l.logger.Info("serial link closed", "port", l.portName)

	if err != nil {
		return fmt.Errorf("closing port: %w", err)
	}
	return nil
}

// Retry closes any current connection and re-opens with the configured port
// and baud rate. It is the only recovery path; the link never reconnects on
// its own.
func (l *Link) Retry() error {
	if err := l.Close(); err != nil {
		l.logger.Warn("close before retry", "error", err)
	}
	return l.Open()
}

func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Link) Status() application.LinkStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return application.LinkStatus{
		Connected: l.state == StateOpen,
		State:     string(l.state),
		Port:      l.portName,
		BaudRate:  l.baudRate,
	}
}

// readBufSize bounds one inbound line; status lines are well under 4KB.
const readBufSize = 4096

// readLoop consumes inbound lines while the link is open. Status lines are
// decoded best-effort for logging; decode failures and oversized noise lines
// are discarded without giving up the link. When the stream ends the link
// transitions to Disconnected, unless a newer reader generation has already
// taken over.
func (l *Link) readLoop(port io.Reader, gen int) {
	reader := bufio.NewReaderSize(port, readBufSize)
	for {
		line, err := reader.ReadSlice('\n')
		if err == nil {
			l.handleLine(line)
			continue
		}

		if err == bufio.ErrBufferFull {
			l.logger.Debug("discarding oversized device line")
			for err == bufio.ErrBufferFull {
				_, err = reader.ReadSlice('\n')
			}
			if err == nil {
				continue
			}
		}

		if err != io.EOF {
			l.logger.Warn("serial read error", "error", err)
		}
		break
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen || l.state != StateOpen {
		return
	}
	l.logger.Warn("serial link lost", "port", l.portName)
	l.dropLocked()
}

func (l *Link) handleLine(raw []byte) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return
	}

	status, err := domain.DecodeStatus(line)
	if err != nil {
		l.logger.Debug("unparsed device line", "line", string(line))
		return
	}

	pwm, _ := domain.PWMForSpeed(status.FanSpeed)
	l.logger.Info("device status",
		"device", status.Device,
		"fan_on", status.FanOn,
		"fan_speed", status.FanSpeed,
		"pwm", status.PWMValue,
		"pwm_expected", pwm,
	)
}

// dropLocked releases the port after an I/O failure. Caller holds l.mu.
func (l *Link) dropLocked() {
	if l.port != nil {
		_ = l.port.Close()
		l.port = nil
	}
	l.gen++
	l.state = StateDisconnected
}
