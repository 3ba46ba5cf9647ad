// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package beamtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	// EchoBufSize is the largest chunk echoed in one write.
	EchoBufSize = 64
	// DefaultBaud matches the 1MHz/104 divider of the reference hardware.
	DefaultBaud = 9600

	waitTimeout = 2 * time.Second
)

// UART is the byte sink the report is written to. Writes block until the
// device accepts the byte.
type UART struct {
	name string
	f    *os.File
	own  bool
}

// OpenUART opens a serial device and configures it for raw 8N1 at baud.
func OpenUART(name string, baud int) (*UART, error) {
	f, err := waitForPermission(name)
	if err != nil {
		return nil, fmt.Errorf("uart %s: %w", name, err)
	}
	if err := configure(f, baud); err != nil {
		f.Close()
		return nil, fmt.Errorf("uart %s: %w", name, err)
	}
	return &UART{name: name, f: f, own: true}, nil
}

// NewUART wraps an already open file, such as os.Stdout. The file is not
// closed by Close.
func NewUART(f *os.File) *UART {
	return &UART{name: f.Name(), f: f}
}

// Name returns the device name.
func (u *UART) Name() string {
	return u.name
}

// WriteByte sends one byte.
func (u *UART) WriteByte(c byte) error {
	b := [1]byte{c}
	for {
		n, err := u.f.Write(b[:])
		if n == 1 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (u *UART) Read(p []byte) (int, error) {
	return u.f.Read(p)
}

func (u *UART) Write(p []byte) (int, error) {
	return u.f.Write(p)
}

// Close closes the device if it was opened by OpenUART.
func (u *UART) Close() error {
	if !u.own {
		return nil
	}
	return u.f.Close()
}

// Echo copies every byte received on rw back out, until a read fails or
// ctx is done. It shares no state with the test loop.
func Echo(ctx context.Context, rw io.ReadWriter) error {
	buf := make([]byte, EchoBufSize)
	for ctx.Err() == nil {
		n, err := rw.Read(buf)
		if n > 0 {
			if _, werr := rw.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Trap never returns. It is the halt used when bring-up fails and there is
// no supervisor to restart the process.
func Trap() {
	for {
		time.Sleep(time.Hour)
	}
}

// A device node can appear before its permissions are set, so wait for it
// to become writable.
func waitForPermission(name string) (*os.File, error) {
	var tout time.Duration
	var err error
	var f *os.File
	sl := time.Millisecond
	for tout = 0; tout < waitTimeout; tout += sl {
		f, err = os.OpenFile(name, os.O_RDWR, 0)
		if err == nil || !os.IsPermission(err) {
			break
		}
		time.Sleep(sl)
	}
	return f, err
}
