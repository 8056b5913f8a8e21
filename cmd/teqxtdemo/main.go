// Command teqxtdemo renders a line of text with teqxt and saves it as PNG.
//
// Usage:
//
//	teqxtdemo -text "Hello, teqxt" -px 48 -subpixel -out hello.png
//
// The vulkan backend needs a GPU. The noop backend runs everywhere and
// produces an empty image, which is useful to exercise the pipeline setup.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan"
	"golang.org/x/image/draw"

	"github.com/gogpu/teqxt"
	"github.com/gogpu/teqxt/outline"
)

func main() {
	var (
		text     = flag.String("text", "Hello, teqxt!", "text to render")
		width    = flag.Int("width", 640, "image width")
		height   = flag.Int("height", 160, "image height")
		px       = flag.Float64("px", 48, "pixels per em")
		gamma    = flag.Float64("gamma", 2.2, "coverage gamma")
		subpixel = flag.Bool("subpixel", false, "enable subpixel anti-aliasing")
		output   = flag.String("out", "teqxt.png", "output file")
		backend  = flag.String("backend", "vulkan", "HAL backend: vulkan or noop")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		teqxt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(*backend, *output, *text, *width, *height, float32(*px), float32(*gamma), *subpixel); err != nil {
		log.Fatalf("teqxtdemo: %v", err)
	}
	log.Printf("Text saved to %s (%dx%d)\n", *output, *width, *height)
}

func run(backend, output, text string, w, h int, px, gamma float32, subpixel bool) error {
	if err := checkSize(w, h); err != nil {
		return err
	}
	device, queue, cleanup, err := openDevice(backend)
	if err != nil {
		return err
	}
	defer cleanup()

	img, err := render(device, queue, text, w, h, px, gamma, subpixel)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return save(output, img)
}

// maxSize bounds the image so the size fits a texture dimension.
const maxSize = 16384

func checkSize(w, h int) error {
	if w < 1 || h < 1 || w > maxSize || h > maxSize {
		return fmt.Errorf("image size %dx%d out of range 1..%d", w, h, maxSize)
	}
	return nil
}

func render(device hal.Device, queue hal.Queue, text string, w, h int, px, gamma float32, subpixel bool) (*image.RGBA, error) {
	font, err := outline.GoRegular()
	if err != nil {
		return nil, err
	}
	glyphs, advance, err := font.Layout(text, teqxt.Vec2{})
	if err != nil {
		return nil, err
	}

	r, err := teqxt.NewRenderer(device, queue, teqxt.WithTargetFormat(gputypes.TextureFormatRGBA8Unorm))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("Close: %v", err)
		}
	}()

	frame, err := r.Draw(teqxt.DrawParams{
		OutputSize: [2]uint32{uint32(w), uint32(h)},
		PxPerEm:    px,
		// Center the line; 0.35 em is roughly half the cap height.
		Translation: teqxt.Vec2{-advance / 2, -0.35},
		Glyphs:      glyphs,
		Gamma:       gamma,
		SubpixelAA:  subpixel,
	})
	if err != nil {
		return nil, err
	}
	if frame.Empty {
		return nil, fmt.Errorf("nothing to draw for %q", text)
	}

	s := r.Stats()
	log.Printf("Drew %d curves in %d draw calls", s.Instances, s.DrawCalls)

	pixels, err := r.ReadPixels(frame)
	if err != nil {
		return nil, err
	}

	// The output is premultiplied white text; composite it over a background.
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.RGBA{R: 24, G: 28, B: 36, A: 255}}, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), pixels, image.Point{}, draw.Over)
	return out, nil
}

func save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// openDevice opens the first suitable adapter of the named backend.
func openDevice(name string) (hal.Device, hal.Queue, func(), error) {
	var (
		instance hal.Instance
		err      error
	)
	switch name {
	case "vulkan":
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, nil, nil, fmt.Errorf("vulkan backend not available")
		}
		instance, err = backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	case "noop":
		instance, err = noop.API{}.CreateInstance(nil)
	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q", name)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open device: %w", err)
	}
	teqxt.Logger().Info("adapter selected", slog.String("name", selected.Info.Name), slog.String("backend", name))

	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup, nil
}
