package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/evyataryagoni/ipgeo/internal/models"
	"github.com/evyataryagoni/ipgeo/ipapi"
	"github.com/spf13/cobra"
)

type options struct {
	Encrypted bool
	JSON      bool
	Host      string
	Timeout   time.Duration
}

var ErrTooManyTargets = errors.New("at most one target may be given")

const unknown = "unknown"

func newCmd() *cobra.Command {
	opts := &options{
		Host:    ipapi.DefaultHost,
		Timeout: 10 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "ipapi [target]",
		Short: "ipapi looks up an IP address or domain name on ip-api.com",
		Long: "ipapi looks up an IP address or domain name on ip-api.com.\n" +
			"Without a target it reports on the address this machine is seen from.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return ErrTooManyTargets
			}
			var target string
			if len(args) == 1 {
				target = args[0]
			}

			client := ipapi.NewClient(
				ipapi.WithHost(opts.Host),
				ipapi.WithDoer(&http.Client{Timeout: opts.Timeout}),
			)
			result, err := client.Lookup(target, opts.Encrypted)
			if err != nil {
				kind := ipapi.KindOther
				var apiErr *ipapi.Error
				if errors.As(err, &apiErr) {
					kind = apiErr.Kind
				}
				return fmt.Errorf("lookup failed (%s): %w", kind, err)
			}

			if opts.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(models.NewLookupResponse(target, result))
			}
			printResult(cmd.OutOrStdout(), target, result)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Encrypted, "https", "s", opts.Encrypted, "use https (a paid ip-api.com feature)")
	cmd.Flags().BoolVarP(&opts.JSON, "json", "j", opts.JSON, "print the result as JSON, unknown fields as null")
	cmd.Flags().StringVar(&opts.Host, "host", opts.Host, "upstream host, host or host:port")
	cmd.Flags().DurationVarP(&opts.Timeout, "timeout", "t", opts.Timeout, "request timeout")

	return cmd
}

// printResult writes one "field: value" line per field
func printResult(w io.Writer, target string, r *ipapi.Result) {
	if target == "" {
		target = "self"
	}

	location := unknown
	if lat, lon, ok := r.Location(); ok {
		location = strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lon, 'f', -1, 64)
	}

	lines := []struct {
		name  string
		value string
	}{
		{"target", target},
		{"country", orUnknown(r.Country())},
		{"country_code", orUnknown(r.CountryCode())},
		{"region", orUnknown(r.Region())},
		{"region_name", orUnknown(r.RegionName())},
		{"city", orUnknown(r.City())},
		{"zip", orUnknown(r.Zip())},
		{"location", location},
		{"timezone", orUnknown(r.Timezone())},
		{"isp", orUnknown(r.ISP())},
		{"organization", orUnknown(r.Organization())},
		{"autonomous_system", orUnknown(r.AutonomousSystem())},
		{"mobile", strconv.FormatBool(r.IsMobile())},
		{"proxy", strconv.FormatBool(r.IsProxy())},
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%s: %s\n", l.name, l.value)
	}
}

func orUnknown(value string, ok bool) string {
	if !ok {
		return unknown
	}
	return value
}
