// Package main is a small CLI that performs one request through the requestable facade.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dungnh3/requestable/config"
	"github.com/dungnh3/requestable/http_client"
	"github.com/dungnh3/requestable/log"
)

type flags struct {
	configPath string
	method     string
	params     []string
	headers    []string
	encoding   string
	arrays     string
	bools      string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "napreq",
		Short: "Fetch an HTTP resource as raw data, a JSON object or a JSON array",
		Long: `napreq performs a single request and prints the result.

Examples:
  napreq data https://example.com/robots.txt
  napreq object https://api.example.com/users/1 -H "Accept: application/json"
  napreq array /users -p active=1 --config requestable.yaml
  napreq object /users -X POST -p name=bob --encoding json`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&f.configPath, "config", "", "config file (yaml, json, toml)")
	cmd.PersistentFlags().StringVarP(&f.method, "method", "X", "GET", "HTTP method")
	cmd.PersistentFlags().StringArrayVarP(&f.params, "param", "p", nil, "parameter key=value, repeatable")
	cmd.PersistentFlags().StringArrayVarP(&f.headers, "header", "H", nil, "header 'Key: value', repeatable")
	cmd.PersistentFlags().StringVar(&f.encoding, "encoding", "default", "parameter encoding: default, query, body, json")
	cmd.PersistentFlags().StringVar(&f.arrays, "array-encoding", "brackets", "array keys: brackets, nobrackets")
	cmd.PersistentFlags().StringVar(&f.bools, "bool-encoding", "numeric", "bool values: numeric, literal")

	cmd.AddCommand(
		fetchCmd(f, "data", "Print the raw response body"),
		fetchCmd(f, "object", "Print the response decoded as a JSON object"),
		fetchCmd(f, "array", "Print the response decoded as a JSON array"),
	)
	return cmd
}

func fetchCmd(f *flags, kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " URL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			logger, err := cfg.Log.Build()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			opt, err := cfg.Client.Option()
			if err != nil {
				return err
			}
			client, err := http_client.New(opt)
			if err != nil {
				return err
			}

			ctx := log.ToContext(cmd.Context(), logger.With(zap.String("command", kind)))
			out, err := run(ctx, client, kind, req)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// run issues one asynchronous call and waits for its completion.
func run(ctx context.Context, client http_client.Requestable, kind string, req http_client.Request) ([]byte, error) {
	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)

	switch kind {
	case "data":
		client.RequestData(ctx, req, func(data []byte, err error) {
			done <- result{data, err}
		})
	case "object":
		client.RequestObject(ctx, req, func(object http_client.JSONObject, err error) {
			if err != nil {
				done <- result{nil, err}
				return
			}
			out, err := render(object)
			done <- result{out, err}
		})
	case "array":
		client.RequestArray(ctx, req, func(array http_client.JSONArray, err error) {
			if err != nil {
				done <- result{nil, err}
				return
			}
			out, err := render(array)
			done <- result{out, err}
		})
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
