package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/subtitle"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a local SRT or VTT file into caption records",
	Long: `Parse a local subtitle file with the same rules the API uses and print
the captions together with how many blocks were dropped.

WebVTT files are converted to SRT first.

Examples:
  xcaption parse talk.en.srt
  xcaption parse talk.en.vtt --strip-tags --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().
		Bool("strip-tags", false, "Remove inline markup such as <i> from caption text")
	parseCmd.Flags().
		StringP("format", "f", outputAuto, "Output format (table, json, srt, vtt, ass)")
	parseCmd.Flags().
		StringP("output", "o", "", "Write output to a file instead of stdout")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	stripTags, _ := cmd.Flags().GetBool("strip-tags")
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	if !cmd.Flags().Changed("strip-tags") {
		stripTags = cfg.Captions.StripTags
	}

	output, err := outputFormat(cmd, formatStr, outputPath)
	if err != nil {
		return err
	}

	text, err := readSRT(path)
	if err != nil {
		return err
	}

	captions, stats := caption.ParseSRTWithStats(text, caption.ParseOptions{StripTags: stripTags})
	logger.Debugw("parsed subtitle file",
		"path", path,
		"blocks", stats.Blocks,
		"parsed", stats.Parsed,
		"dropped", stats.Dropped(),
	)

	return printCaptions(cmd, captionsOutput{
		Source:   service.SourceUpload,
		Count:    len(captions),
		Stats:    &stats,
		Captions: captions,
	}, output, outputPath)
}

// readSRT loads a subtitle file as SRT text, converting WebVTT.
func readSRT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vtt":
		return subtitle.ToSRT(data, subtitle.FormatVTT)
	case ".srt", "":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q: use .srt or .vtt", ext)
	}
}
