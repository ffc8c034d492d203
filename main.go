package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"camsize/calibration"
	"camsize/chart"
	"camsize/config"
	"camsize/imagesource"
	"camsize/overlay"
	"camsize/session"
)

var (
	configPath   = flag.String("config", "", "Measurement config JSON (calibration reference and test images)\n\t\tExample: -config=config/measurements.defaults.json (omit for built-in defaults)")
	outputDir    = flag.String("out", "out", "Directory for annotated images, charts and results")
	resultsFile  = flag.String("results", "", "Write a JSON summary of the run to this file (relative to -out unless absolute)")
	overlayOut   = flag.Bool("overlay", false, "Save annotated images and a side-by-side panel (requires OpenCV image files)")
	interactive  = flag.Bool("interactive", false, "Prompt for the pixel and real-world measurements, starting from the config values")
	chartOut     = flag.Bool("chart", false, "Save calculated vs real comparison charts as PNG")
	debugVerbose = flag.Bool("debug-verbose", false, "Enable verbose output (calibration and per-image projection details)")
)

// debugMsg prints a component-tagged line
func debugMsg(component, message string) {
	fmt.Printf("[%s][%s] %s\n", time.Now().Format("15:04:05.000"), component, message)
}

// debugMsgVerbose only outputs if debug-verbose flag is enabled
func debugMsgVerbose(component, message string) {
	if !*debugVerbose {
		return
	}
	debugMsg(component, message)
}

func usage() {
	fmt.Println("\n📐 CAMSIZE - pinhole size estimation")
	fmt.Println("================================================================")
	fmt.Println("\n💡 USAGE EXAMPLES:")
	fmt.Println("\n  Built-in sample measurements:")
	fmt.Println("    ./camsize")
	fmt.Println("\n  Your own measurements:")
	fmt.Println("    ./camsize -config=measurements.json")
	fmt.Println("\n  Enter measurements by hand:")
	fmt.Println("    ./camsize -interactive")
	fmt.Println("\n  Annotated images, charts and a results summary:")
	fmt.Println("    ./camsize -config=measurements.json -overlay -chart -results=results.json")
	fmt.Println("\n🔧 FLAGS:")
	flag.PrintDefaults()
	fmt.Println("\n📏 NOTES:")
	fmt.Println("  • Pixel sizes and anchors are measured by hand in the photos (top-left corner)")
	fmt.Println("  • Real sizes and distances share the config unit (default cm)")
	fmt.Println("  • The optical center is assumed to be the image center")
	fmt.Println("")
}

func loadMeasurements() (*config.Measurements, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	return config.Load(*configPath)
}

func run(ctx context.Context) error {
	cfg, err := loadMeasurements()
	if err != nil {
		return err
	}
	if *interactive {
		entry := calibration.NewEntry(os.Stdin, os.Stdout)
		if cfg, err = entry.Measurements(cfg); err != nil {
			return err
		}
		if !entry.AskYesNo("\nRun the evaluation with these measurements?") {
			fmt.Printf("Evaluation cancelled.\n")
			return nil
		}
	}
	debugMsgVerbose("CONFIG", fmt.Sprintf("unit=%s calibration=%s tests=%d", cfg.Unit, cfg.Calibration.Image, len(cfg.Tests)))

	res, err := session.New(cfg, imagesource.Loader{}).Run(ctx)
	if err != nil {
		return err
	}
	res.Print(os.Stdout)

	if *overlayOut {
		paths, err := overlay.NewRenderer(filepath.Join(*outputDir, "overlay")).Render(res, cfg.ProfileImages)
		if err != nil {
			return fmt.Errorf("overlay failed: %w", err)
		}
		fmt.Printf("\n🖼️  Panel saved: %s\n", paths[len(paths)-1])
	}

	if *chartOut {
		paths, err := chart.SaveComparison(res, filepath.Join(*outputDir, "charts"))
		if err != nil {
			return fmt.Errorf("chart failed: %w", err)
		}
		for _, p := range paths {
			fmt.Printf("📊 Chart saved: %s\n", p)
		}
	}

	if *resultsFile != "" {
		path := *resultsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(*outputDir, path)
		}
		if err := session.WriteResults(path, res); err != nil {
			return err
		}
		fmt.Printf("✅ Results saved to: %s\n", path)
	}
	return nil
}

func main() {
	flag.Usage = usage
	flag.Parse()

	session.SetDebugFunction(debugMsgVerbose)
	overlay.SetDebugFunction(debugMsgVerbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
