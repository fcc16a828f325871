// Command slicer slices STL models into G-code.
//
// Each input file becomes one object on the plate; use a TOML profile to
// override the stock settings.
//
// Usage:
//
//	slicer [flags] model.stl [more.stl ...]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/printforge/slicer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "slicer:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("slicer", flag.ExitOnError)
	var (
		profilePath  = fs.String("profile", "", "TOML profile overriding the stock settings")
		outPath      = fs.String("o", "", "output path (default: first input with .gcode; - for stdout)")
		previewPath  = fs.String("preview", "", "write a PNG preview of one sliced layer")
		previewLayer = fs.Int("preview-layer", 0, "layer index rendered by -preview")
		verbose      = fs.Bool("v", false, "debug logging")
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: slicer [flags] model.stl [more.stl ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no input files")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slicer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := slicer.DefaultProfile()
	if *profilePath != "" {
		var err error
		if cfg, err = slicer.LoadProfile(*profilePath); err != nil {
			return err
		}
	}

	job, err := slicer.New(cfg)
	if err != nil {
		return err
	}
	defer job.Close()

	// A first interrupt cancels the job cleanly; a second one kills us.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		<-interrupts
		job.Cancel()
		signal.Stop(interrupts)
	}()

	// Objects print where their model coordinates place them; arrange
	// multi-object plates in the modeling tool.
	var objects []*slicer.PrintObject
	for _, path := range fs.Args() {
		obj, err := addObject(job, path)
		if err != nil {
			return err
		}
		objects = append(objects, obj)
	}

	if err := job.Slice(); err != nil {
		return err
	}
	for _, w := range job.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	if *previewPath != "" {
		if err := writePreview(objects[0], *previewPath, *previewLayer); err != nil {
			return err
		}
	}

	out, closeOut, err := openOutput(*outPath, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := job.Export(out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

// addObject loads one STL file as a single-volume object.
func addObject(job *slicer.Print, path string) (*slicer.PrintObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	obj := job.AddObject(name)
	if _, err := obj.AddVolumeSTL(name, slicer.ModelPart, f); err != nil {
		return nil, err
	}
	return obj, nil
}

func writePreview(obj *slicer.PrintObject, path string, layer int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := obj.WritePreviewPNG(f, layer); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// openOutput resolves the output target: an explicit path, stdout for
// "-", or the first input's name with a .gcode extension.
func openOutput(outPath, firstInput string) (io.Writer, func() error, error) {
	if outPath == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	if outPath == "" {
		ext := filepath.Ext(firstInput)
		outPath = strings.TrimSuffix(firstInput, ext) + ".gcode"
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
