// Command presentdemo runs a nested compositor on the headless platform.
//
// The host display is described by a YAML file; edit it while the demo runs
// to reconfigure the outputs. A producer goroutine draws into a swap chain
// of noop GPU buffers that the compositor samples from on every frame.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/present"
	"github.com/gogpu/present/buffer"
	"github.com/gogpu/present/compositor"
	"github.com/gogpu/present/display"
	"github.com/gogpu/present/dropping"
	"github.com/gogpu/present/hostfile"
	"github.com/gogpu/present/nested"
	"github.com/gogpu/present/output"
	"github.com/gogpu/present/output/headless"
	"github.com/gogpu/present/swapchain"
	"github.com/gogpu/present/timing"
)

func main() {
	var (
		config   = flag.String("config", "host.yaml", "host display description (created if missing)")
		platform = flag.String("platform", headless.Name, "output platform")
		refresh  = flag.Float64("refresh", 60, "simulated refresh rate of the headless platform")
		duration = flag.Duration("duration", 5*time.Second, "how long to run, 0 to run until interrupted")
		verbose  = flag.Bool("v", false, "log debug messages")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	present.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := run(ctx, *config, *platform, *refresh); err != nil {
		log.Fatalf("presentdemo: %v", err)
	}
}

func run(ctx context.Context, configPath, platformName string, refresh float64) error {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := hostfile.WriteFile(configPath, defaultLayout()); err != nil {
			return err
		}
		log.Printf("wrote default host layout to %s", configPath)
	}

	platform, err := openPlatform(platformName, refresh)
	if err != nil {
		return err
	}
	defer platform.Close()

	host, err := hostfile.Open(configPath, platform)
	if err != nil {
		return err
	}
	defer host.Close()

	device, cleanup, err := openNoopDevice()
	if err != nil {
		return err
	}
	defer cleanup()
	provider := &noopProvider{device: device}

	comp, err := nested.New(host,
		nested.WithConfigurationPolicy(nested.UseAllConnected),
		nested.WithDeviceProvider(provider),
	)
	if err != nil {
		return err
	}
	defer comp.Close()

	importer, allocator, err := buffer.NewHALImporterFromProvider(provider)
	if err != nil {
		return err
	}

	groups := comp.SyncGroups()
	if len(groups) == 0 {
		return errors.New("no outputs in use")
	}
	primary := groups[0]

	chain := swapchain.New(
		importer,
		allocator,
		buffer.Properties{
			Size:   primary.Surface().ViewArea().Size(),
			Format: provider.SurfaceFormat(),
		},
		swapchain.WithDroppingPolicy(dropping.NewTimeoutFactory(dropping.DefaultTimeout)),
	)
	defer chain.Close()

	period := time.Second / 60
	if refresh > 0 {
		period = time.Duration(float64(time.Second) / refresh)
	}
	go produce(ctx, chain, comp, primary.ID(), period)

	loop := compositor.NewMultiThreaded(comp, &sampler{chain: chain, primary: primary.Surface()})
	if err := loop.Start(ctx); err != nil {
		return err
	}

	// The loop's set of groups is fixed, so a host change restarts it.
	var (
		restartMu sync.Mutex
		stopped   bool
	)
	comp.RegisterConfigurationChangeHandler(func() {
		restartMu.Lock()
		defer restartMu.Unlock()
		if stopped {
			return
		}
		if err := loop.Stop(); err != nil {
			present.Logger().Warn("compositing stopped", "err", err)
		}
		conf := comp.Configuration()
		nested.UseAllConnected.Apply(conf)
		if err := comp.Configure(conf); err != nil {
			present.Logger().Warn("host configuration rejected", "err", err)
		}
		if err := loop.Start(ctx); err != nil {
			present.Logger().Warn("restart compositing", "err", err)
		}
		log.Printf("reconfigured: %d sync groups", len(comp.SyncGroups()))
	})

	<-ctx.Done()
	restartMu.Lock()
	stopped = true
	err = loop.Stop()
	restartMu.Unlock()
	if err != nil {
		return err
	}

	for _, g := range comp.SyncGroups() {
		frame := g.Surface().FrameClock().Read()
		log.Printf("sync group %d %v: %d frames, last at %v", g.ID(), g.Outputs(), frame.Sequence, frame.Timestamp)
	}
	log.Printf("composited %d frames, dropped %d client frames", loop.Frames(), chain.Dropped())
	return nil
}

func openPlatform(name string, refresh float64) (output.Platform, error) {
	if name == headless.Name {
		return headless.New(headless.WithRefreshRate(refresh)), nil
	}
	return output.NewPlatformByName(name)
}

func openNoopDevice() (hal.Device, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, errors.New("no noop adapter")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, err
	}
	return openDev.Device, func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}, nil
}

// noopProvider shares the noop HAL device with the compositor and the
// buffer allocator.
type noopProvider struct {
	device hal.Device
}

func (p *noopProvider) Device() gpucontext.Device   { return nil }
func (p *noopProvider) Queue() gpucontext.Queue     { return nil }
func (p *noopProvider) Adapter() gpucontext.Adapter { return nil }
func (p *noopProvider) HalDevice() any              { return p.device }

func (p *noopProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

func (p *noopProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop", Type: gpucontext.AdapterTypeSoftware}
}

// produce draws client frames, aiming each one at the next frame of
// output id as predicted from its frame clock.
func produce(ctx context.Context, chain *swapchain.Chain, d *nested.Compositor, id display.OutputID, period time.Duration) {
	clock, ok := d.FrameClock(id)
	if !ok {
		return
	}
	for ctx.Err() == nil {
		b, err := chain.ClientAcquire(ctx)
		if err != nil {
			return
		}
		// A real client renders into b here.
		if err := chain.ClientSubmit(b); err != nil {
			return
		}

		last := clock.Read()
		wait := last.Timestamp.Add(period).Sub(timing.Now(last.Timestamp.Clock))
		if wait <= 0 || wait > period {
			wait = period
		}
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
}

// sampler shows the newest client frame on the primary surface.
type sampler struct {
	chain   *swapchain.Chain
	primary *output.Surface
	showing *buffer.Buffer
}

func (s *sampler) Render(_ context.Context, surface *output.Surface) error {
	if surface != s.primary {
		return nil
	}
	next, ok := s.chain.CompositorAcquire()
	if !ok {
		return nil
	}
	if err := next.BindForSampling(); err != nil {
		return err
	}
	if s.showing != nil {
		if err := s.chain.CompositorRelease(s.showing); err != nil {
			return err
		}
	}
	s.showing = next
	return nil
}

func defaultLayout() *display.Configuration {
	mode := []display.Mode{{Size: image.Pt(1280, 720), RefreshRate: 60}}
	return &display.Configuration{Outputs: []display.Output{
		{ID: 1, Connected: true, Used: true, Modes: mode, Format: gputypes.TextureFormatBGRA8Unorm},
		{ID: 2, Connected: true, Used: true, TopLeft: image.Pt(640, 360), Modes: mode, Format: gputypes.TextureFormatBGRA8Unorm},
		{ID: 3, Connected: true, Used: true, TopLeft: image.Pt(1920, 0), Modes: mode, Format: gputypes.TextureFormatBGRA8Unorm, Orientation: display.Left},
	}}
}
