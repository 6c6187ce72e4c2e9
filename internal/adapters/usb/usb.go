// Package usb talks to the amplifier over its bulk USB interface. Vendor and
// product IDs default to the FTDI bridge the instrument ships with.
package usb

import (
	"errors"

	"github.com/google/gousb"
)

const (
	// DefaultVendorID and DefaultProductID identify the amplifier's USB bridge.
	DefaultVendorID  = 0x0403
	DefaultProductID = 0x6010

	pipeOutEP = 1
	pipeInEP  = 2

	commandFrameLen = 16
	packetHeaderLen = 8

	commandMarker = 0xF8
	streamMarker  = 0xF9
)

// Config selects and sizes the hardware transport.
type Config struct {
	VendorID       uint16 `yaml:"vendor_id"`
	ProductID      uint16 `yaml:"product_id"`
	Serial         string `yaml:"serial"`
	Channels       int    `yaml:"channels"`
	BufferCapacity int    `yaml:"buffer_capacity"`
}

func (c *Config) ApplyDefaults() {
	if c.VendorID == 0 {
		c.VendorID = DefaultVendorID
	}
	if c.ProductID == 0 {
		c.ProductID = DefaultProductID
	}
	if c.Channels == 0 {
		c.Channels = 5
	}
	if c.BufferCapacity == 0 {
		c.BufferCapacity = 4096
	}
}

func (c *Config) Validate() error {
	if c.Channels < 2 {
		return errors.New("channels must cover voltage plus at least one current")
	}
	return nil
}

func (c *Config) vid() gousb.ID { return gousb.ID(c.VendorID) }
func (c *Config) pid() gousb.ID { return gousb.ID(c.ProductID) }
