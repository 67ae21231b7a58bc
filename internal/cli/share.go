package cli

import (
	"encoding/json"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	applog "cardshare/internal/log"
)

func newShareCmd(a *app) *cobra.Command {
	var (
		baseURL string
		copyIt  bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Print the public share link for a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := a.baseURL(baseURL)
			view, err := a.share.Resolve(args[0], base)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "    ")
				if err := enc.Encode(view); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, view.ShareLink)
			}
			if copyIt {
				if err := clipboard.WriteAll(view.ShareLink); err != nil {
					applog.Security(nil, "share.copy.fail", map[string]any{"id": view.ID, "err": err.Error()})
					fmt.Fprintln(cmd.ErrOrStderr(), "clipboard unavailable, link not copied")
					return nil
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Link copied to clipboard!")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL (overrides PUBLIC_BASE_URL)")
	cmd.Flags().BoolVar(&copyIt, "copy", false, "copy the link to the clipboard")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full public view as JSON")
	return cmd
}

// baseURL picks the flag, then PUBLIC_BASE_URL, then the local server address.
func (a *app) baseURL(flag string) string {
	switch {
	case flag != "":
		return flag
	case a.cfg.PublicBaseURL != "":
		return a.cfg.PublicBaseURL
	default:
		return "http://localhost:" + a.cfg.Port
	}
}
