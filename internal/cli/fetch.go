package cli

import (
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

func newTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Fetch a transcript and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cache, _, err := buildService()
			if err != nil {
				return err
			}
			defer cache.Close()

			resp, err := svc.GetTranscript(cmd.Context(), flagURL, flagLang, flagPreferAuto)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&flagURL, "url", "", "video URL or 11-character video ID")
	cmd.Flags().StringVar(&flagLang, "lang", "", "preferred caption language (BCP-47)")
	cmd.Flags().BoolVar(&flagPreferAuto, "prefer-auto", false, "prefer the auto-generated track")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newTracksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List the caption tracks available for a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cache, _, err := buildService()
			if err != nil {
				return err
			}
			defer cache.Close()

			tracks, err := svc.ListTracks(cmd.Context(), flagURL)
			if err != nil {
				return err
			}
			return printJSON(engine.TracksResponse{Tracks: tracks})
		},
	}
	cmd.Flags().StringVar(&flagURL, "url", "", "video URL or 11-character video ID")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newMetadataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Fetch video title and channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cache, _, err := buildService()
			if err != nil {
				return err
			}
			defer cache.Close()

			info, err := svc.GetMetadata(cmd.Context(), flagURL)
			if err != nil {
				return err
			}
			return printJSON(info)
		},
	}
	cmd.Flags().StringVar(&flagURL, "url", "", "video URL or 11-character video ID")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
