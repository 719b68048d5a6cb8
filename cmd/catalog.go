package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/longkey1/shopadvice/internal/catalog"
	"github.com/longkey1/shopadvice/internal/config"
	"github.com/spf13/cobra"
)

var (
	catalogCategory  string
	catalogGrounding bool
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog [query]",
	Short: "List the products the advisor knows about",
	Long: `List the products loaded from catalog_file.

A query matches product names and descriptions (case-insensitive).
With --grounding the product block sent to the model is printed instead.

Examples:
  shopadvice catalog                       # List all products
  shopadvice catalog silk                  # Products mentioning "silk"
  shopadvice catalog --category Wellness   # Only one category
  shopadvice catalog --grounding           # Show the grounding text`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.CatalogFile == "" {
			return fmt.Errorf("catalog_file is not configured")
		}

		products, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}

		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		products = catalog.Filter(products, catalogCategory, query)

		if catalogGrounding {
			fmt.Println(catalog.Grounding(products))
			return nil
		}

		if len(products) == 0 {
			fmt.Fprintln(os.Stderr, "No products found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tDESCRIPTION")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t¥%s\t%s\n", p.ID, p.Name, p.Category, catalog.FormatPrice(p.Price), truncate(p.Description, 60))
		}
		return w.Flush()
	},
}

// truncate shortens s to max runes, marking the cut with "..."
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringVarP(&catalogCategory, "category", "c", "", "Only list products in this category")
	catalogCmd.Flags().BoolVar(&catalogGrounding, "grounding", false, "Print the grounding text sent to the model")
}
