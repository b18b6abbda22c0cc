package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// printJSON writes v to the command's stdout, indented.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// intArgs parses every positional argument as a positive id.
func intArgs(args []string, names ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n <= 0 {
			name := "argument"
			if i < len(names) {
				name = names[i]
			}
			return nil, fmt.Errorf("invalid %s %q: must be a positive integer", name, a)
		}
		out[i] = n
	}
	return out, nil
}
