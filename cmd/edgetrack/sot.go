package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/swdee/go-edgetrack/render"
	"github.com/swdee/go-edgetrack/tracker"
	"github.com/swdee/go-edgetrack/tracker/sot"
)

// sotOptions holds the flags of the sot command
type sotOptions struct {
	VideoPath  string
	Box        string
	OutputPath string
	RenderPath string
}

var sotOpts sotOptions

var sotCmd = &cobra.Command{
	Use:   "sot",
	Short: "Follow a single target through a video using template matching",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSOT(cmd.Context(), sotOpts, cfg.SOT)
	},
}

func init() {
	sotCmd.Flags().StringVar(&sotOpts.VideoPath, "video", "", "Path to source video")
	sotCmd.Flags().StringVarP(&sotOpts.Box, "box", "b", "", "Target box in the first frame as x1,y1,x2,y2")
	sotCmd.Flags().StringVarP(&sotOpts.OutputPath, "output", "o", "-", "Path to write JSON lines results, - for stdout")
	sotCmd.Flags().StringVar(&sotOpts.RenderPath, "render", "", "Path to write the rendered video")

	sotCmd.MarkFlagRequired("video")
	sotCmd.MarkFlagRequired("box")
	rootCmd.AddCommand(sotCmd)
}

// runSOT initializes on the first frame and tracks the target through the
// rest of the video
func runSOT(ctx context.Context, opts sotOptions, sotCfg tracker.SOTConfig) error {

	box, err := parseBox(opts.Box)
	if err != nil {
		return err
	}

	out, err := openOutput(opts.OutputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	rnd, err := newRenderer(opts.VideoPath, opts.RenderPath)
	if err != nil {
		return err
	}
	defer rnd.Close()

	matcher := sot.NewTemplateMatcher()
	defer matcher.Close()

	st, err := sot.New(matcher, sotCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	bar := progressbar.NewOptions(rnd.FrameCount(),
		progressbar.OptionSetDescription("Tracking"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	enc := json.NewEncoder(out)

	for frameID := uint64(0); ; frameID++ {

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := rnd.read(frameID); err != nil {
			// end of video
			return nil
		}

		var info tracker.TrackerInfo

		if frameID == 0 {
			if err := st.InitializeWithBox(rnd.img, box, frameID); err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}

			info = tracker.TrackerInfo{TrackID: 1, Box: st.Box(), Score: 1,
				Status: st.Status(), ObjIdx: -1, PairIdx: -1}
		} else {
			info, err = st.Track(rnd.img, frameID)
			if err != nil {
				return fmt.Errorf("frame %d: %w", frameID, err)
			}
		}

		if err := enc.Encode(resultRecord{
			FrameID: frameID,
			Results: []tracker.TrackerInfo{info},
		}); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}

		if opts.RenderPath != "" {
			render.TrackerBoxes(&rnd.img, []tracker.TrackerInfo{info}, rnd.font, rnd.style)

			if err := rnd.write(); err != nil {
				return err
			}
		}

		bar.Add(1)
	}
}
