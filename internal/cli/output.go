package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

// writeJSON prints v as indented JSON on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(pretty.Pretty(data))
	return err
}

// render prints either the JSON form of v or the formatted text.
func render(cmd *cobra.Command, app *App, v any, text func() string) error {
	if app.JSON {
		return writeJSON(cmd, v)
	}
	fmt.Fprint(cmd.OutOrStdout(), text())
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
