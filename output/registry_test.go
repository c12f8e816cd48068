// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package output

import (
	"errors"
	"testing"
)

// stubPlatform embeds the interface; only identity matters to the registry.
type stubPlatform struct {
	Platform
	name string
}

func stubFactory(name string) PlatformFactory {
	return func() (Platform, error) {
		return &stubPlatform{name: name}, nil
	}
}

func TestRegistryPrioritySelection(t *testing.T) {
	r := NewRegistry()
	r.Register("low", 10, stubFactory("low"), nil)
	r.Register("high", 100, stubFactory("high"), nil)

	p, err := r.NewPlatform()
	if err != nil {
		t.Fatalf("NewPlatform() error = %v", err)
	}
	if got := p.(*stubPlatform).name; got != "high" {
		t.Errorf("selected = %s, want high", got)
	}
}

func TestRegistryFallsBack(t *testing.T) {
	r := NewRegistry()
	r.Register("broken", 100, func() (Platform, error) { return nil, errors.New("no display") }, nil)
	r.Register("offline", 200, stubFactory("offline"), func() bool { return false })
	r.Register("headless", 10, stubFactory("headless"), nil)

	p, err := r.NewPlatform()
	if err != nil {
		t.Fatalf("NewPlatform() error = %v", err)
	}
	if got := p.(*stubPlatform).name; got != "headless" {
		t.Errorf("selected = %s, want headless", got)
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("b", 50, stubFactory("b"), nil)
	r.Register("a", 50, stubFactory("a"), nil)
	r.Register("c", 90, stubFactory("c"), func() bool { return false })

	list := r.List()
	want := []string{"c", "a", "b"}
	if len(list) != len(want) {
		t.Fatalf("List() = %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("List() = %v, want %v", list, want)
		}
	}
	if avail := r.Available(); len(avail) != 2 || avail[0] != "a" {
		t.Errorf("Available() = %v, want [a b]", avail)
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.NewPlatform(); !errors.Is(err, ErrNoPlatformAvailable) {
		t.Errorf("NewPlatform() error = %v, want ErrNoPlatformAvailable", err)
	}

	_, err := r.NewPlatformByName("x11")
	var notFound *PlatformNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "x11" {
		t.Errorf("NewPlatformByName() error = %v, want PlatformNotFoundError", err)
	}
	if err.Error() != "output: platform not found: x11" {
		t.Errorf("error message = %q", err.Error())
	}

	r.Register("x11", 100, stubFactory("x11"), func() bool { return false })
	_, err = r.NewPlatformByName("x11")
	var unavailable *PlatformUnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("NewPlatformByName() error = %v, want PlatformUnavailableError", err)
	}

	r.Unregister("x11")
	if len(r.List()) != 0 {
		t.Errorf("List() after Unregister = %v", r.List())
	}
}
