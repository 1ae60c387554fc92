package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/swdee/go-edgetrack/tracker"
	"github.com/swdee/go-edgetrack/tracker/mot"
)

// motOptions holds the flags of the mot command
type motOptions struct {
	InputPath  string
	OutputPath string
	Width      int
	Height     int
	Pairs      string
	VideoPath  string
	RenderPath string
	// Queue is the per channel frame buffer size
	Queue int
}

var motOpts motOptions

var motCmd = &cobra.Command{
	Use:   "mot",
	Short: "Track a JSON lines detection file, one tracker per channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMOTCommand(cmd.Context(), motOpts)
	},
}

func init() {
	motCmd.Flags().StringVarP(&motOpts.InputPath, "input", "i", "", "Path to JSON lines detections, - for stdin")
	motCmd.Flags().StringVarP(&motOpts.OutputPath, "output", "o", "-", "Path to write JSON lines results, - for stdout")
	motCmd.Flags().IntVar(&motOpts.Width, "width", 0, "Image width for frames that do not state it")
	motCmd.Flags().IntVar(&motOpts.Height, "height", 0, "Image height for frames that do not state it")
	motCmd.Flags().StringVarP(&motOpts.Pairs, "pairs", "p", "", "Object type pairs to fuse, eg: face:person,plate:car")
	motCmd.Flags().StringVar(&motOpts.VideoPath, "video", "", "Source video of a single channel to render results over")
	motCmd.Flags().StringVar(&motOpts.RenderPath, "render", "", "Path to write the rendered video")
	motCmd.Flags().IntVar(&motOpts.Queue, "queue", 16, "Frames buffered per channel")

	motCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(motCmd)
}

// runMOTCommand opens the files and runs the trackers
func runMOTCommand(ctx context.Context, opts motOptions) error {

	in, err := openInput(opts.InputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openOutput(opts.OutputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var rnd *renderer

	if opts.VideoPath != "" || opts.RenderPath != "" {
		if opts.VideoPath == "" || opts.RenderPath == "" {
			return errors.New("--video and --render must be given together")
		}

		rnd, err = newRenderer(opts.VideoPath, opts.RenderPath)
		if err != nil {
			return err
		}
		defer rnd.Close()

		if opts.Width == 0 && opts.Height == 0 {
			opts.Width, opts.Height = rnd.Size()
		}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Tracking"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	return runMOT(ctx, in, out, opts, cfg.MOT, rnd, func() { bar.Add(1) })
}

// channelWorker owns the tracker of one video channel
type channelWorker struct {
	name    string
	frames  chan frameRecord
	tracker *mot.MOT
}

// runMOT reads frame records, tracks each channel in its own goroutine and
// writes the results.  Results of a channel keep their input order.
func runMOT(ctx context.Context, r io.Reader, w io.Writer, opts motOptions,
	motCfg tracker.MOTConfig, rnd *renderer, onFrame func()) error {

	pairs, err := parsePairs(opts.Pairs)
	if err != nil {
		return err
	}

	if opts.Queue < 1 {
		opts.Queue = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan resultRecord, opts.Queue)
	errs := make(chan error, 1)

	fail := func(err error) {
		select {
		case errs <- err:
		default:
		}
		cancel()
	}

	// single writer so lines are never interleaved
	writeDone := make(chan struct{})

	go func() {
		defer close(writeDone)

		enc := json.NewEncoder(w)

		for rec := range results {
			if err := enc.Encode(rec); err != nil {
				fail(fmt.Errorf("failed to write results: %w", err))
				continue
			}

			if rnd != nil {
				if err := rnd.Draw(rec.FrameID, rec.Results); err != nil {
					fail(err)
					continue
				}
			}

			if onFrame != nil {
				onFrame()
			}
		}
	}()

	workers := make(map[string]*channelWorker)
	var wg sync.WaitGroup

	startWorker := func(name string) (*channelWorker, error) {

		t, err := mot.New(motCfg)
		if err != nil {
			return nil, err
		}

		if err := t.SetPairConfig(pairs); err != nil {
			return nil, err
		}

		cw := &channelWorker{
			name:    name,
			frames:  make(chan frameRecord, opts.Queue),
			tracker: t,
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			for rec := range cw.frames {
				res, err := cw.track(rec, opts)

				if err != nil {
					fail(fmt.Errorf("channel %q frame %d: %w", cw.name, rec.FrameID, err))
					return
				}

				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()

		return cw, nil
	}

	readErr := func() error {
		scanner := newLineScanner(r)
		line := 0

		for scanner.Scan() {
			line++

			if len(scanner.Bytes()) == 0 {
				continue
			}

			rec, err := decodeFrame(scanner.Bytes())
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			cw, ok := workers[rec.Channel]

			if !ok {
				if rnd != nil && len(workers) > 0 {
					return fmt.Errorf("line %d: rendering supports a single channel", line)
				}

				cw, err = startWorker(rec.Channel)
				if err != nil {
					return err
				}

				workers[rec.Channel] = cw
			}

			select {
			case cw.frames <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return scanner.Err()
	}()

	for _, cw := range workers {
		close(cw.frames)
	}

	wg.Wait()
	close(results)
	<-writeDone

	select {
	case err := <-errs:
		return err
	default:
	}

	return readErr
}

// track runs one frame through the channel's tracker
func (cw *channelWorker) track(rec frameRecord, opts motOptions) (resultRecord, error) {

	width, height := rec.Width, rec.Height

	if width == 0 && height == 0 {
		width, height = opts.Width, opts.Height
	}

	cw.tracker.SetImgSize(width, height)

	res, err := cw.tracker.Track(rec.Detections, rec.FrameID)
	if err != nil {
		return resultRecord{}, err
	}

	if res == nil {
		res = []tracker.TrackerInfo{}
	}

	return resultRecord{
		Channel: rec.Channel,
		FrameID: rec.FrameID,
		Results: res,
	}, nil
}

// openInput opens the path for reading, - is stdin
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	return f, nil
}

// nopWriteCloser wraps stdout so closing it is a no-op
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// openOutput creates the path for writing, - is stdout
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}

	return f, nil
}
