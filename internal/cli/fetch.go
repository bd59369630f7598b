package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/subtitle"
	"github.com/mgpai22/xcaption/internal/ytdlp"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <video>",
	Short: "Fetch captions for a YouTube video",
	Long: `Fetch captions for a YouTube video and print them.

The video may be given as an id or any common YouTube URL. Output defaults to
a table on a terminal and JSON otherwise; subtitle formats can be written to a
file with -o.

Examples:
  xcaption fetch dQw4w9WgXcQ
  xcaption fetch https://youtu.be/dQw4w9WgXcQ --lang de --format json
  xcaption fetch dQw4w9WgXcQ --translate ja -o captions.ja.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().
		StringP("lang", "l", "", "Caption language (default from config, usually en)")
	fetchCmd.Flags().
		StringP("translate", "t", "", "Translate captions to this language")
	fetchCmd.Flags().
		Bool("strip-tags", false, "Remove inline markup such as <i> from caption text")
	fetchCmd.Flags().
		StringP("format", "f", outputAuto, "Output format (table, json, srt, vtt, ass)")
	fetchCmd.Flags().
		StringP("output", "o", "", "Write output to a file instead of stdout")
	fetchCmd.Flags().
		Bool("no-cache", false, "Bypass the caption cache")
}

// captionsOutput is the JSON shape printed by fetch, parse and transcribe.
type captionsOutput struct {
	VideoID  string            `json:"videoId,omitempty"`
	Language string            `json:"language,omitempty"`
	Source   string            `json:"source"`
	Cached   bool              `json:"cached,omitempty"`
	Count    int               `json:"count"`
	Stats    *caption.Stats    `json:"stats,omitempty"`
	Captions []caption.Caption `json:"captions"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	videoID, err := ytdlp.ParseVideoID(args[0])
	if err != nil {
		return err
	}

	lang, _ := cmd.Flags().GetString("lang")
	target, _ := cmd.Flags().GetString("translate")
	stripTags, _ := cmd.Flags().GetBool("strip-tags")
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	output, err := outputFormat(cmd, formatStr, outputPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("strip-tags") {
		stripTags = cfg.Captions.StripTags
	}

	comps, err := service.Build(cmd.Context(), cfg, logger, !noCache)
	if err != nil {
		return err
	}
	defer comps.Close()

	logger.Debugw("fetching captions", "video_id", videoID, "lang", lang, "translate", target)
	res, err := comps.Service.Captions(cmd.Context(), service.Request{
		VideoID:   videoID,
		Language:  lang,
		StripTags: stripTags,
		Translate: target,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch captions: %w", err)
	}

	return printCaptions(cmd, captionsOutput{
		VideoID:  res.VideoID,
		Language: res.Language,
		Source:   res.Source,
		Cached:   res.Cached,
		Count:    len(res.Captions),
		Captions: res.Captions,
	}, output, outputPath)
}

// outputFormat picks the output format, inferring a subtitle format from the
// output file extension when none was given.
func outputFormat(cmd *cobra.Command, formatStr, outputPath string) (string, error) {
	if outputPath != "" && !cmd.Flags().Changed("format") {
		ext := strings.ToLower(filepath.Ext(outputPath))
		if ext == ".json" {
			return outputJSON, nil
		}
		if format, err := subtitle.ParseFormat(ext); err == nil {
			return string(format), nil
		}
		return outputJSON, nil
	}
	return resolveOutput(formatStr, cmd.OutOrStdout())
}

func printCaptions(cmd *cobra.Command, out captionsOutput, output, outputPath string) error {
	if out.Captions == nil {
		out.Captions = []caption.Caption{}
	}

	switch output {
	case outputTable:
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, captionsTable(out.Captions))
		summary := fmt.Sprintf("%d captions", out.Count)
		if out.VideoID != "" {
			summary += fmt.Sprintf(" for %s (%s)", out.VideoID, out.Language)
		}
		summary += fmt.Sprintf(", source %s", out.Source)
		if out.Cached {
			summary += ", cached"
		}
		if out.Stats != nil && out.Stats.Dropped() > 0 {
			summary += fmt.Sprintf(", %d blocks dropped", out.Stats.Dropped())
		}
		fmt.Fprintln(w, summary)
		return nil
	case outputJSON:
		if outputPath == "" {
			return writeJSON(cmd, out)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(cmd, outputPath, append(data, '\n'))
	default:
		format, err := subtitle.ParseFormat(output)
		if err != nil {
			return err
		}
		data, err := subtitle.Render(subtitle.FromCaptions(out.Captions, out.Language), format)
		if err != nil {
			return err
		}
		return writeOutput(cmd, outputPath, data)
	}
}
