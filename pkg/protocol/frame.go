package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxFrameSize is the largest frame a client may send, in bytes.
const MaxFrameSize = 8 * 1024

// MaxFlashItems bounds the flash count a page may report.
const MaxFlashItems = 64

// FrameType identifies the type of frame.
type FrameType string

const (
	FrameToast   FrameType = "toast"   // Server → Client toast slot state
	FrameFlash   FrameType = "flash"   // Server → Client flash item transition
	FrameUI      FrameType = "ui"      // Server → Client page UI state
	FrameCommand FrameType = "command" // Server → Client browser command
	FramePong    FrameType = "pong"    // Server → Client heartbeat reply
	FrameError   FrameType = "error"   // Server → Client error

	FrameReady FrameType = "ready" // Client → Server page bootstrap
	FrameEvent FrameType = "event" // Client → Server UI event
	FramePing  FrameType = "ping"  // Client → Server heartbeat
)

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
	ErrMissingPayload   = errors.New("protocol: missing payload")
	ErrInvalidPayload   = errors.New("protocol: invalid payload")
)

// Frame is one message on the live channel.
type Frame struct {
	Type    FrameType     `json:"type"`
	Toast   *ToastFrame   `json:"toast,omitempty"`
	Flash   *FlashFrame   `json:"flash,omitempty"`
	UI      *UIFrame      `json:"ui,omitempty"`
	Command *CommandFrame `json:"command,omitempty"`
	Error   *ErrorFrame   `json:"error,omitempty"`
	Ready   *ReadyFrame   `json:"ready,omitempty"`
	Event   *EventFrame   `json:"event,omitempty"`
}

// ToastFrame carries the toast slot state.
type ToastFrame struct {
	Text       string `json:"text"`
	Background string `json:"background,omitempty"`
	Visible    bool   `json:"visible"`
}

// FlashFrame carries one flash item transition.
type FlashFrame struct {
	Index int    `json:"index"`
	State string `json:"state"`
}

// UIFrame carries the page UI state.
type UIFrame struct {
	Theme        string `json:"theme"`
	MenuOpen     bool   `json:"menuOpen"`
	DropdownOpen bool   `json:"dropdownOpen"`
	OpenFAQ      int    `json:"openFaq"`
}

// CommandFrame asks the browser to do something only it can do.
type CommandFrame struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ReadyFrame reports what the page discovered at load.
type ReadyFrame struct {
	Flash int `json:"flash"`
}

// EventFrame is a UI event raised in the browser.
type EventFrame struct {
	Name   string `json:"name"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ErrorFrame reports a problem with a client frame.
type ErrorFrame struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal,omitempty"`
}

// Encode marshals f to its wire form.
func Encode(f *Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", f.Type, err)
	}
	return data, nil
}

// Decode parses and validates a frame.
func Decode(data []byte) (*Frame, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that f carries the payload its type requires.
func (f *Frame) Validate() error {
	switch f.Type {
	case FrameToast:
		return require(f.Toast != nil, f.Type)
	case FrameFlash:
		if f.Flash == nil {
			return require(false, f.Type)
		}
		if f.Flash.Index < 0 {
			return fmt.Errorf("%w: negative flash index", ErrInvalidPayload)
		}
		return nil
	case FrameUI:
		return require(f.UI != nil, f.Type)
	case FrameCommand:
		return require(f.Command != nil && f.Command.Name != "", f.Type)
	case FrameError:
		return require(f.Error != nil, f.Type)
	case FrameReady:
		if f.Ready == nil {
			return require(false, f.Type)
		}
		if f.Ready.Flash < 0 || f.Ready.Flash > MaxFlashItems {
			return fmt.Errorf("%w: flash count %d out of range", ErrInvalidPayload, f.Ready.Flash)
		}
		return nil
	case FrameEvent:
		return require(f.Event != nil && f.Event.Name != "", f.Type)
	case FramePing, FramePong:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFrameType, f.Type)
	}
}

func require(ok bool, ft FrameType) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s frame", ErrMissingPayload, ft)
}

// NewToast returns a toast frame.
func NewToast(text, background string, visible bool) *Frame {
	return &Frame{Type: FrameToast, Toast: &ToastFrame{Text: text, Background: background, Visible: visible}}
}

// NewFlash returns a flash transition frame.
func NewFlash(index int, state string) *Frame {
	return &Frame{Type: FrameFlash, Flash: &FlashFrame{Index: index, State: state}}
}

// NewCommand returns a browser command frame.
func NewCommand(name, url string) *Frame {
	return &Frame{Type: FrameCommand, Command: &CommandFrame{Name: name, URL: url}}
}

// NewError returns an error frame.
func NewError(code ErrorCode, message string, fatal bool) *Frame {
	return &Frame{Type: FrameError, Error: &ErrorFrame{Code: code, Message: message, Fatal: fatal}}
}
