//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package bridge

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	// From /usr/include/linux/spi/spidev.h:
	// ioctl signals
	SPI_IOC_WR_MODE          = 0x40016b01
	SPI_IOC_WR_BITS_PER_WORD = 0x40016b03
	SPI_IOC_WR_MAX_SPEED_HZ  = 0x40046b04

	SPI_MODE_0 = 0x00
)

type spiDevice struct {
	mutex    sync.Mutex
	location string
	file     *os.File
}

// openSPIDevice opens the SPI device at the given location and configures
// it for the given clock speed.
func openSPIDevice(location string, speedHz uint32) (*spiDevice, error) {
	d := &spiDevice{
		location: location,
	}

	var err error
	if d.file, err = os.OpenFile(location, os.O_RDWR, os.ModeDevice); err != nil {
		return nil, err
	}
	mode := uint8(SPI_MODE_0)
	if err := d.ioctl(SPI_IOC_WR_MODE, uintptr(unsafe.Pointer(&mode))); err != nil {
		d.closeFile()
		return nil, errors.Wrap(err, "Setting mode failed")
	}
	bits := uint8(8)
	if err := d.ioctl(SPI_IOC_WR_BITS_PER_WORD, uintptr(unsafe.Pointer(&bits))); err != nil {
		d.closeFile()
		return nil, errors.Wrap(err, "Setting bits per word failed")
	}
	if err := d.ioctl(SPI_IOC_WR_MAX_SPEED_HZ, uintptr(unsafe.Pointer(&speedHz))); err != nil {
		d.closeFile()
		return nil, errors.Wrapf(err, "Setting speed (%d Hz) failed", speedHz)
	}
	return d, nil
}

func (d *spiDevice) ioctl(request, arg uintptr) error {
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		d.file.Fd(),
		request,
		arg,
	)
	if errno != 0 {
		return fmt.Errorf("ioctl 0x%0x on %s failed with errno %v", request, d.location, errno)
	}
	return nil
}

// write sends a block of data to the device in a single transfer.
func (d *spiDevice) write(data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	n, err := d.file.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write to %s: %d of %d bytes", d.location, n, len(data))
	}
	return nil
}

func (d *spiDevice) closeFile() error {
	if err := d.file.Close(); err != nil {
		return err
	}
	return nil
}
