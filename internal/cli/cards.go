package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cardshare/internal/media"
	"cardshare/internal/services"
	"cardshare/internal/validate"
)

type cardFlags struct {
	name        string
	description string
	backDetails string
	price       string
	image       string
	backImage   string
}

func (f *cardFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "card name")
	cmd.Flags().StringVar(&f.description, "description", "", "front description")
	cmd.Flags().StringVar(&f.backDetails, "back-details", "", "back details")
	cmd.Flags().StringVar(&f.price, "price", "", "price, greater than 0")
	cmd.Flags().StringVar(&f.image, "image", "", "front image: local JPG/PNG file or absolute URL")
	cmd.Flags().StringVar(&f.backImage, "back-image", "", "back image: local JPG/PNG file or absolute URL")
}

func (f *cardFlags) input() (services.CardInput, error) {
	front, err := imageSource(f.image)
	if err != nil {
		return services.CardInput{}, err
	}
	back, err := imageSource(f.backImage)
	if err != nil {
		return services.CardInput{}, err
	}
	return services.CardInput{
		Name:        f.name,
		Description: f.description,
		BackDetails: f.backDetails,
		Price:       f.price,
		Front:       front,
		Back:        back,
	}, nil
}

// imageSource treats an absolute URL as a remote reference and anything that
// names an existing file as an upload. Other values pass through as URLs so
// the service can match a stored reference or reject them.
func imageSource(v string) (media.Source, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return media.Source{}, nil
	}
	if _, ok := validate.AbsoluteURL(v); ok {
		return media.Source{URL: v}, nil
	}
	fi, err := os.Stat(v)
	if err != nil || fi.IsDir() {
		return media.Source{URL: v}, nil
	}
	ct, err := sniff(v)
	if err != nil {
		return media.Source{}, err
	}
	up, err := media.FromFile(v, ct)
	if err != nil {
		return media.Source{}, err
	}
	return media.Source{Upload: up}, nil
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored cards in insertion order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cards, err := a.cards.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "No cards stored.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tUPLOADED")
			for _, c := range cards {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, oneLine(c.Name),
					strconv.FormatFloat(c.Price, 'f', -1, 64), c.UploadTime.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 40 {
		return string(r[:39]) + "…"
	}
	return s
}

func newAddCmd(a *app) *cobra.Command {
	var f cardFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a new card",
		Long: `Publish a new card. Every field is required.

Examples:
  cardshare add --name "Retro Console" --description "Boxed" \
    --back-details "Model 2" --price 149.99 \
    --image ./front.png --back-image https://cdn.example.com/back.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			id, err := a.ingest.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		f         cardFlags
		keepFront bool
		keepBack  bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace every field of a stored card",
		Long: `Replace every field of a stored card. Images must be supplied again,
or kept with --keep-image / --keep-back-image.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			in, err := f.input()
			if err != nil {
				return err
			}
			// A kept image resubmits the stored reference as-is.
			if keepFront || keepBack {
				cur, err := a.cards.Find(id)
				if err != nil {
					return err
				}
				if keepFront {
					in.Front = media.Source{URL: cur.Image}
				}
				if keepBack {
					in.Back = media.Source{URL: cur.BackImage}
				}
			}
			if err := a.ingest.Edit(cmd.Context(), id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", id)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&keepFront, "keep-image", false, "keep the stored front image")
	cmd.Flags().BoolVar(&keepBack, "keep-back-image", false, "keep the stored back image")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a card; unknown ids succeed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ingest.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
