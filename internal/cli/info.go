package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/ytdlp"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <video>",
	Short: "Show video metadata",
	Long: `Show title, uploader, duration and available caption languages for a
YouTube video.

Examples:
  xcaption info dQw4w9WgXcQ
  xcaption info https://www.youtube.com/watch?v=dQw4w9WgXcQ --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().
		StringP("format", "f", outputAuto, "Output format (table, json)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	videoID, err := ytdlp.ParseVideoID(args[0])
	if err != nil {
		return err
	}
	formatStr, _ := cmd.Flags().GetString("format")
	output, err := resolveOutput(formatStr, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("unsupported output %q for info: use table or json", output)
	}

	comps, err := service.Build(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer comps.Close()

	info, err := comps.Service.VideoInfo(cmd.Context(), videoID)
	if err != nil {
		return fmt.Errorf("failed to get video info: %w", err)
	}

	if output == outputJSON {
		return writeJSON(cmd, info)
	}
	fmt.Fprintln(cmd.OutOrStdout(), infoTable(info))
	return nil
}

func infoTable(info *ytdlp.VideoInfo) string {
	rows := [][]string{
		{"Video ID", info.VideoID},
		{"Title", info.Title},
		{"Uploader", info.Uploader},
		{"Duration", caption.FormatClock(info.Duration)},
		{"Views", strconv.FormatInt(info.ViewCount, 10)},
		{"Subtitles", joinOrNone(info.SubtitleLanguages)},
		{"Auto captions", joinOrNone(info.AutomaticLanguages)},
		{"Description", info.Description},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	const limit = 12
	if len(values) > limit {
		return strings.Join(values[:limit], ", ") + fmt.Sprintf(" (+%d more)", len(values)-limit)
	}
	return strings.Join(values, ", ")
}
