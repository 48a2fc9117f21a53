package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yosephberhanu/llm-blanket/blanket"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List known providers",
	Long:  "List the built-in providers with their default endpoints and credential environment variables.",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tDEFAULT ENDPOINT\tCREDENTIAL")
	for _, p := range blanket.KnownProviders() {
		endpoint := blanket.DefaultBaseURL(p)
		if endpoint == "" {
			endpoint = "(requires --base-url)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p, endpoint, blanket.CredentialEnvVar(p))
	}
	return w.Flush()
}
