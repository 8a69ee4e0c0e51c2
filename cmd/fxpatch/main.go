// Command fxpatch loads a YAML patch, establishes it on the effect
// coprocessor and applies edits to it.
//
// Usage:
//
//	fxpatch [flags] -patch file.yaml
//
// Without -device the patch runs on the built-in coprocessor simulator,
// which can also render a test tone through it.
//
// Examples:
//
//	fxpatch -patch shimmer.yaml
//	fxpatch -patch shimmer.yaml -set shift.freq_shift=2 -render 48000
//	fxpatch -patch shimmer.yaml -cc 1:7:100 -save edited.yaml
//	fxpatch -patch shimmer.yaml -device /dev/ttyACM0 -status
//	fxpatch -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/midimap"
	"github.com/cwbudde/algo-fxhost/fx/patch"
	"github.com/cwbudde/algo-fxhost/fx/transport"
	"github.com/cwbudde/algo-fxhost/internal/dspsim"
)

const testToneHz = 440

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// listFlag collects repeated string flags.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	patch  string
	device string
	status bool
	sets   listFlag
	ccs    listFlag
	midiIn string
	render int
	save   string
	list   bool
	debug  bool
	rate   float64
	block  int
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}

	fs := flag.NewFlagSet("fxpatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.patch, "patch", "", "YAML patch file to load")
	fs.StringVar(&o.device, "device", "", "serial device of the coprocessor (default: simulator)")
	fs.BoolVar(&o.status, "status", false, "wait for an ack/nak byte from the device after every frame")
	fs.Var(&o.sets, "set", "parameter edit id.param=value after sync (repeatable)")
	fs.Var(&o.ccs, "cc", "MIDI control change channel:controller:value fed through the patch bindings (repeatable, channel 1-16)")
	fs.StringVar(&o.midiIn, "midi-in", "", "listen on this MIDI input port until interrupted")
	fs.IntVar(&o.render, "render", 0, "render this many samples of a test tone through the simulator (pitch shifters add 8192 samples of latency)")
	fs.StringVar(&o.save, "save", "", "write the edited patch to this file")
	fs.BoolVar(&o.list, "list", false, "list available effect types")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging (adds source location)")
	fs.Float64Var(&o.rate, "rate", 48000, "simulator sample rate in Hz")
	fs.IntVar(&o.block, "block", 256, "simulator control block size in samples")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fxpatch [flags] -patch file.yaml\n\n")
		fmt.Fprintf(stderr, "Loads a patch, syncs it to the coprocessor and applies edits.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if !o.list && o.patch == "" {
		fs.Usage()
		return nil, errors.New("-patch is required")
	}

	return o, nil
}

func initLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := initLogger(stderr, o.debug)

	if o.list {
		return printTypes(stdout)
	}

	file, err := patch.Load(o.patch)
	if err != nil {
		return err
	}

	var (
		sim *dspsim.Coprocessor
		tr  canvas.Transport
	)

	if o.device == "" {
		sim = dspsim.New(dspsim.WithSampleRate(o.rate), dspsim.WithBlockSize(o.block))
		tr = sim
	} else {
		dev, err := os.OpenFile(o.device, os.O_RDWR, 0)
		if err != nil {
			return err
		}
		defer dev.Close()

		var opts []transport.StreamOption
		if o.status {
			opts = append(opts, transport.WithStatus(dev))
		}

		tr = transport.NewStream(dev, opts...)
	}

	c := canvas.New(tr, canvas.WithLogger(logger))

	p, err := file.Build(c, effects.DefaultRegistry())
	if err != nil {
		return err
	}

	if err = c.Sync(); err != nil {
		return err
	}

	logger.Info("patch established", "patch", o.patch, "effects", c.Len(), "routes", len(c.Routes()))

	for _, s := range o.sets {
		if err = applySet(p, s); err != nil {
			return err
		}
	}

	var mu sync.Mutex

	m, err := midimap.FromPatch(p, midimap.WithLogger(logger), midimap.WithLocker(&mu))
	if err != nil {
		return err
	}

	for _, s := range o.ccs {
		msg, err := parseCC(s)
		if err != nil {
			return err
		}

		if err = m.Handle(msg); err != nil {
			return err
		}
	}

	if o.midiIn != "" {
		if err = listen(ctx, m, o.midiIn, logger); err != nil {
			return err
		}
	}

	mu.Lock()
	defer mu.Unlock()

	if err = c.Describe(stdout); err != nil {
		return err
	}

	if o.render > 0 {
		if sim == nil {
			return errors.New("-render needs the simulator; drop -device")
		}

		if err = printRender(stdout, sim, o.render); err != nil {
			return err
		}
	}

	if o.save != "" {
		return save(o.save, file, c)
	}

	return nil
}

// applySet parses "id.param=value" and writes it. Values are numbers, true
// or false, or an oscillator shape name.
func applySet(p *patch.Patch, s string) error {
	ref, raw, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("-set %q: want id.param=value", s)
	}

	e, param, err := p.Param(ref)
	if err != nil {
		return err
	}

	var x float64

	switch raw {
	case "true", "on":
		x = 1
	case "false", "off":
		x = 0
	default:
		x, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			shape, shapeErr := effects.ParseShape(raw)
			if shapeErr != nil {
				return fmt.Errorf("-set %q: %w", s, err)
			}
			x = float64(shape)
		}
	}

	v, err := effects.ValueFor(param.Type(), x)
	if err != nil {
		return fmt.Errorf("-set %q: %w", s, err)
	}

	return e.SetParam(param.ID(), v)
}

// parseCC parses "channel:controller:value" with a 1-based channel.
func parseCC(s string) (midi.Message, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("-cc %q: want channel:controller:value", s)
	}

	var n [3]uint64

	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("-cc %q: %w", s, err)
		}
		n[i] = v
	}

	if n[0] < 1 || n[0] > 16 || n[1] > 127 || n[2] > 127 {
		return nil, fmt.Errorf("-cc %q: out of range", s)
	}

	return midi.ControlChange(uint8(n[0]-1), uint8(n[1]), uint8(n[2])), nil
}

func listen(ctx context.Context, m *midimap.Map, port string, logger *slog.Logger) error {
	defer midi.CloseDriver()

	in, err := midi.FindInPort(port)
	if err != nil {
		return fmt.Errorf("MIDI input %q: %w", port, err)
	}

	stop, err := m.Listen(in)
	if err != nil {
		return err
	}
	defer stop()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	logger.Info("listening for MIDI", "port", port)
	<-ctx.Done()

	return nil
}

func printTypes(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "Type\tParameters\n----\t----------\n"); err != nil {
		return err
	}

	reg := effects.DefaultRegistry()

	for _, name := range reg.Names() {
		u, err := reg.Build(effects.Params{Type: name})
		if err != nil {
			return err
		}

		var params []string
		for _, p := range u.Base().Params() {
			params = append(params, fmt.Sprintf("%s:%s", p.Name(), p.Type()))
		}

		if _, err = fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(params, " ")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func printRender(w io.Writer, sim *dspsim.Coprocessor, n int) error {
	rate := sim.Config().SampleRate

	in := make([]float64, n)
	for i := range in {
		in[i] = 0.5 * math.Sin(2*math.Pi*testToneHz*float64(i)/rate)
	}

	out, err := sim.Process(in)
	if err != nil {
		return err
	}

	freq, err := dspsim.PeakFrequency(out, rate)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Signal\tSamples\tPeak\tPeak [Hz]\n------\t-------\t----\t---------\n")
	fmt.Fprintf(tw, "in\t%d\t%.4f\t%.1f\n", n, dspsim.Peak(in), float64(testToneHz))
	fmt.Fprintf(tw, "out\t%d\t%.4f\t%.1f\n", n, dspsim.Peak(out), freq)

	return tw.Flush()
}

// save writes the current canvas state with the loaded file's MIDI bindings.
func save(path string, loaded *patch.File, c *canvas.Canvas) error {
	f, err := patch.Snapshot(loaded.Name, c)
	if err != nil {
		return err
	}

	f.MIDI = loaded.MIDI

	data, err := f.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
