package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/irwave/ircodec"
	"github.com/irwave/ircodec/device"
	"github.com/irwave/ircodec/identify"
	"github.com/irwave/ircodec/internal/config"
	"github.com/irwave/ircodec/internal/logger"
	"github.com/irwave/ircodec/ircode"
)

var Version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfgPath := os.Getenv("IRCODEC_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ircodec: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		LogDir:     cfg.Logger.Dir,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "ircodec: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := &app{cfg: cfg}

	var runErr error
	switch os.Args[1] {
	case "convert":
		runErr = app.runConvert(os.Args[2:])
	case "simplify":
		runErr = app.runSimplify(os.Args[2:])
	case "decode":
		runErr = app.runDecode(os.Args[2:])
	case "transmit":
		runErr = app.runTransmit(os.Args[2:])
	case "receive":
		runErr = app.runReceive(os.Args[2:])
	case "version":
		fmt.Println("ircodec v" + Version)
	default:
		usage()
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "ircodec: %v\n", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `ircodec v`+Version+` - IR code multitool

usage:
  ircodec convert  [-f FORMAT] [-t THRESHOLD] [-s] TYPE:CODE
  ircodec simplify [-t THRESHOLD] TYPE:CODE
  ircodec decode   TYPE:CODE
  ircodec transmit [-d TYPE:ARGS] TYPE:CODE
  ircodec receive  [-d TYPE:ARGS] [-n COUNT]

CODE may be "@name" to look it up in the configured code library.`)
}

type app struct {
	cfg *config.Config
}

// parseCode resolves library references and parses the text grammar.
func (a *app) parseCode(arg string) (ircode.Format, error) {
	lib, err := config.LoadLibrary(a.cfg.Library.Path)
	if err != nil {
		return nil, err
	}
	text, err := lib.Resolve(arg)
	if err != nil {
		return nil, err
	}
	return ircodec.FromString(text)
}

// openDevice resolves the -d flag, the configured spec, or the configured
// (or auto-detected) device profile, in that order.
func (a *app) openDevice(flagSpec string) (device.Device, error) {
	spec := flagSpec
	if spec == "" {
		spec = a.cfg.Device.Spec
	}
	if spec == "" {
		name := a.cfg.Device.Profile
		if name == "" {
			name = string(config.DetectProfile())
		}
		profile, err := config.LoadProfile(name)
		if err != nil {
			return nil, err
		}
		logger.Info("using device profile",
			zap.String("profile", name), zap.String("spec", profile.Spec()))
		spec = profile.Spec()
	}
	return device.Find(spec)
}

func (a *app) runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	format := fs.String("f", "", "target format")
	threshold := fs.Float64("t", -1, "also simplify with this threshold")
	structure := fs.Bool("s", false, "output in structure format")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("convert needs exactly one TYPE:CODE argument")
	}

	code, err := a.parseCode(fs.Arg(0))
	if err != nil {
		return err
	}

	converted := code
	if *format != "" {
		newFormat, err := ircodec.FindFormat(*format)
		if err != nil {
			return err
		}
		converted, err = ircode.FromCode(newFormat, code)
		if err != nil {
			return err
		}
	}
	if *threshold >= 0 {
		ircode.SimplifyParams(converted.Params(), *threshold)
	}

	if *structure {
		out, err := json.MarshalIndent(ircode.ToStruct(converted, false), "", "    ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(ircode.ToString(converted))
	return nil
}

func (a *app) runSimplify(args []string) error {
	fs := flag.NewFlagSet("simplify", flag.ExitOnError)
	threshold := fs.Float64("t", a.cfg.Identify.Threshold, "threshold for matching against defaults")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("simplify needs exactly one TYPE:CODE argument")
	}

	code, err := a.parseCode(fs.Arg(0))
	if err != nil {
		return err
	}
	ircode.SimplifyParams(code.Params(), *threshold)
	fmt.Println(ircode.ToString(code))
	return nil
}

func (a *app) printGuesses(code ircode.Format, minScore float64) error {
	guesses, err := identify.TryDecode(code)
	if err != nil {
		return err
	}
	for _, g := range guesses {
		if g.Score < minScore {
			continue
		}
		fmt.Printf("%.1f%% %s\n", g.Score*100, ircode.ToString(g.Code))
	}
	return nil
}

func (a *app) runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("decode needs exactly one TYPE:CODE argument")
	}

	code, err := a.parseCode(fs.Arg(0))
	if err != nil {
		return err
	}
	return a.printGuesses(code, a.cfg.Identify.MinScore)
}

func (a *app) runTransmit(args []string) error {
	fs := flag.NewFlagSet("transmit", flag.ExitOnError)
	devSpec := fs.String("d", "", "device TYPE:ARGS")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("transmit needs exactly one TYPE:CODE argument")
	}

	code, err := a.parseCode(fs.Arg(0))
	if err != nil {
		return err
	}
	dev, err := a.openDevice(*devSpec)
	if err != nil {
		return err
	}
	defer dev.Close()
	return dev.Transmit(code)
}

func (a *app) runReceive(args []string) error {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	devSpec := fs.String("d", "", "device TYPE:ARGS")
	count := fs.Int("n", 1, "number of codes to receive, 0 for infinite")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dev, err := a.openDevice(*devSpec)
	if err != nil {
		return err
	}
	defer dev.Close()

	// The identify min_score may be retuned in the config file while a long
	// capture session runs.
	minScore := a.cfg.Identify.MinScore
	if cfgPath := os.Getenv("IRCODEC_CONFIG"); cfgPath != "" {
		stop, err := config.Watch(cfgPath, func(cfg *config.Config) {
			minScore = cfg.Identify.MinScore
			logger.Info("config reloaded", zap.Float64("min_score", minScore))
		})
		if err == nil {
			defer stop()
		}
	}

	for i := 0; *count == 0 || i < *count; i++ {
		code, err := dev.Receive()
		if err != nil {
			return err
		}
		fmt.Println("=== Received code ===")
		if err := a.printGuesses(code, minScore); err != nil {
			return err
		}
	}
	return nil
}
