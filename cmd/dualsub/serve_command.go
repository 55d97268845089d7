package main

import (
	"net"
	"strings"

	"github.com/spf13/cobra"

	"dualsub/internal/httpapi"
	"dualsub/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the subtitle operations over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if strings.TrimSpace(bind) != "" {
				cfg.API.Bind = strings.TrimSpace(bind)
			}
			logger := logging.NewComponentLogger(ctx.loggerValue(), "api")
			if strings.TrimSpace(cfg.API.Token) == "" && !isLoopback(cfg.API.Bind) {
				logging.WarnWithContext(logger, "api token not set on a non-loopback address", "api_auth_disabled",
					logging.String("bind", cfg.API.Bind),
					logging.String(logging.FieldImpact, "anyone who can reach the port can spend translation credits"),
					logging.String(logging.FieldErrorHint, "set api.token or DUALSUB_API_TOKEN"),
				)
			}

			return httpapi.New(cfg, httpapi.WithLogger(logger)).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: api.bind)")
	return cmd
}

func isLoopback(bind string) bool {
	host, _, err := net.SplitHostPort(bind)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
