package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/truemediaorg/cobaltbot/config"
	"github.com/truemediaorg/cobaltbot/model"
	"github.com/truemediaorg/cobaltbot/service"
)

var resolveAudioOnly bool

func init() {
	resolveCmd.Flags().BoolVar(&resolveAudioOnly, "audio", false, "request audio only")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolves a link once and prints the direct media URL",
	Long:  `Resolves a link against the configured cobalt instance, probes the media size and prints the result. Nothing is sent to Telegram.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnvfile()
		cfg.ConfigureLogging()

		httpClient := service.NewHTTPClient(cfg.Cobalt)
		defer httpClient.CloseIdleConnections()
		cobaltService := service.NewCobaltService(cfg, httpClient)

		request, err := model.NewResolutionRequest(args[0], resolveAudioOnly)
		if err != nil {
			return err
		}
		result, err := cobaltService.Resolve(context.Background(), request)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "url:  %s\nkind: %s\n", result.DirectURL, result.Kind)
		if size, ok := cobaltService.ProbeSize(context.Background(), result.DirectURL); ok {
			fmt.Fprintf(out, "size: %s\n", humanize.IBytes(uint64(size)))
			if size > cfg.MaxFileBytes {
				log.Warnf("media is over the %s limit and would be sent as a link", humanize.IBytes(uint64(cfg.MaxFileBytes)))
			}
		} else {
			fmt.Fprintln(out, "size: unknown")
		}
		return nil
	},
}
