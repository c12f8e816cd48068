// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hostfile

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/present/display"
)

// ErrUnknownFormat is returned for pixel format names the file cannot hold.
var ErrUnknownFormat = errors.New("hostfile: unknown pixel format")

// document is the YAML layout of a host display description:
//
//	outputs:
//	  - id: 1
//	    connected: true
//	    used: true
//	    x: 0
//	    y: 0
//	    modes:
//	      - {width: 1920, height: 1080, refresh: 60}
//	    current_mode: 0
//	    format: bgra8unorm
//	    orientation: 90
type document struct {
	Outputs []outputDoc `yaml:"outputs"`
}

type outputDoc struct {
	ID          int       `yaml:"id"`
	Connected   bool      `yaml:"connected"`
	Used        bool      `yaml:"used"`
	X           int       `yaml:"x"`
	Y           int       `yaml:"y"`
	Modes       []modeDoc `yaml:"modes"`
	CurrentMode int       `yaml:"current_mode"`
	Format      string    `yaml:"format,omitempty"`
	Orientation int       `yaml:"orientation,omitempty"`
}

type modeDoc struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Refresh float64 `yaml:"refresh,omitempty"`
}

var formatNames = map[gputypes.TextureFormat]string{
	gputypes.TextureFormatBGRA8Unorm: "bgra8unorm",
	gputypes.TextureFormatRGBA8Unorm: "rgba8unorm",
}

func parseFormat(name string) (gputypes.TextureFormat, error) {
	if name == "" {
		return gputypes.TextureFormatUndefined, nil
	}
	for f, n := range formatNames {
		if strings.EqualFold(n, name) {
			return f, nil
		}
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Decode parses a YAML display description.
func Decode(data []byte) (*display.Configuration, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("hostfile: decode: %w", err)
	}

	conf := &display.Configuration{Outputs: make([]display.Output, 0, len(doc.Outputs))}
	for _, od := range doc.Outputs {
		format, err := parseFormat(od.Format)
		if err != nil {
			return nil, fmt.Errorf("hostfile: output %d: %w", od.ID, err)
		}
		o := display.Output{
			ID:          display.OutputID(od.ID),
			Connected:   od.Connected,
			Used:        od.Used,
			TopLeft:     image.Pt(od.X, od.Y),
			CurrentMode: od.CurrentMode,
			Format:      format,
			Orientation: display.Orientation(od.Orientation),
		}
		for _, m := range od.Modes {
			o.Modes = append(o.Modes, display.Mode{
				Size:        image.Pt(m.Width, m.Height),
				RefreshRate: m.Refresh,
			})
		}
		conf.Outputs = append(conf.Outputs, o)
	}
	return conf, nil
}

// Encode renders conf as a YAML display description.
func Encode(conf *display.Configuration) ([]byte, error) {
	doc := document{Outputs: make([]outputDoc, 0, len(conf.Outputs))}
	for _, o := range conf.Outputs {
		name, ok := formatNames[o.Format]
		if !ok && o.Format != gputypes.TextureFormatUndefined {
			return nil, fmt.Errorf("hostfile: output %d: %w: %v", o.ID, ErrUnknownFormat, o.Format)
		}
		od := outputDoc{
			ID:          int(o.ID),
			Connected:   o.Connected,
			Used:        o.Used,
			X:           o.TopLeft.X,
			Y:           o.TopLeft.Y,
			CurrentMode: o.CurrentMode,
			Format:      name,
			Orientation: int(o.Orientation),
		}
		for _, m := range o.Modes {
			od.Modes = append(od.Modes, modeDoc{Width: m.Size.X, Height: m.Size.Y, Refresh: m.RefreshRate})
		}
		doc.Outputs = append(doc.Outputs, od)
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("hostfile: encode: %w", err)
	}
	return data, nil
}

// WriteFile writes conf to path as a YAML display description.
func WriteFile(path string, conf *display.Configuration) error {
	data, err := Encode(conf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads a YAML display description from path.
func ReadFile(path string) (*display.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hostfile: %w", err)
	}
	return Decode(data)
}
