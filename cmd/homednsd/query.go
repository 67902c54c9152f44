package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"

	"github.com/haukened/homedns/internal/dns/config"
)

func newQueryCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		server  string
		qtype   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Send a DNS query to a running server and print the answer",
		Long: "Send a DNS query to a running server and print the answer.\n" +
			"A name without dots is looked up in the first configured zone.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := dns.StringToType[strings.ToUpper(qtype)]
			if !ok {
				return fmt.Errorf("unknown query type %q", qtype)
			}
			addr := server
			if addr == "" {
				addr = queryAddress(cfg)
			}

			m := new(dns.Msg)
			m.SetQuestion(queryName(args[0], cfg.Zones), t)

			c := &dns.Client{Net: "udp", Timeout: timeout}
			r, rtt, err := c.ExchangeContext(cmd.Context(), m, addr)
			if err != nil {
				return fmt.Errorf("query %s: %w", addr, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, ";; %s from %s in %v\n", dns.RcodeToString[r.Rcode], addr, rtt)
			for _, rr := range r.Answer {
				fmt.Fprintln(out, rr.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "", "server address (default: configured bind address, loopback for 0.0.0.0)")
	cmd.Flags().StringVarP(&qtype, "type", "t", "A", "query type")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "query timeout")
	return cmd
}

// queryName qualifies a bare hostname with the first zone.
func queryName(name string, zones []string) string {
	if !strings.Contains(strings.TrimSuffix(name, "."), ".") && len(zones) > 0 {
		name = name + "." + zones[0]
	}
	return dns.Fqdn(name)
}

// queryAddress turns the configured bind address into one a client can reach.
func queryAddress(cfg *config.AppConfig) string {
	c := *cfg
	switch c.Bind {
	case "0.0.0.0":
		c.Bind = "127.0.0.1"
	case "::":
		c.Bind = "::1"
	}
	return c.Address()
}
