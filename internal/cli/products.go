package cli

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/arinony/madarun/internal/services"
	"github.com/spf13/cobra"
)

// NewProductsCommand groups product CRUD.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Gérer les produits",
	}
	cmd.AddCommand(newProductsListCommand(rootOpts))
	cmd.AddCommand(newProductsAddCommand(rootOpts))
	cmd.AddCommand(newProductsShowCommand(rootOpts))
	cmd.AddCommand(newProductsUpdateCommand(rootOpts))
	cmd.AddCommand(newProductsRmCommand(rootOpts))
	return cmd
}

func newProductsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lister les produits (du plus récent au plus ancien)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if _, err := a.requireUser(); err != nil {
				return err
			}
			products, err := a.Products.GetAllProducts()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNOM\tTYPE\tSTOCK\tMIN\tUNITE\t")
			for _, p := range products {
				alert := ""
				if p.StockActuel <= p.MinStock {
					alert = " !"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d%s\t%d\t%s\t\n",
					p.ID, p.Name, p.Type, p.StockActuel, alert, p.MinStock, p.Unite)
			}
			return w.Flush()
		},
	}
}

func productInputFlags(cmd *cobra.Command, in *services.ProductInput, image *string) {
	cmd.Flags().StringVar(&in.Name, "name", "", "product name")
	cmd.Flags().StringVar(&in.Type, "type", "", "product category")
	cmd.Flags().IntVar(&in.MinStock, "min-stock", 0, "low-stock alert threshold")
	cmd.Flags().IntVar(&in.InitialStock, "stock", 0, "quantity")
	cmd.Flags().StringVar(&in.Unite, "unit", "", "display unit")
	cmd.Flags().StringVar(image, "image", "", "optional image reference")
}

func newProductsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in services.ProductInput
	var image string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Ajouter un produit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if _, err := a.requireUser(); err != nil {
				return err
			}
			if image != "" {
				in.ImageURI = &image
			}
			p, err := a.Products.AddProduct(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Produit %q créé (id %d).\n", p.Name, p.ID)
			return nil
		},
	}
	productInputFlags(cmd, &in, &image)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProductsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Afficher un produit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if _, err := a.requireUser(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.Products.GetProductByID(id)
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					return fmt.Errorf("produit %d introuvable", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n  type: %s\n  stock: %d %s (seuil %d)\n",
				p.Name, p.ID, p.Type, p.StockActuel, p.Unite, p.MinStock)
			if p.ImageURI != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  image: %s\n", *p.ImageURI)
			}
			return nil
		},
	}
}

func newProductsUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var in services.ProductInput
	var image string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Remplacer les champs d'un produit",
		Long:  "Overwrites every field of the product with the given values (full replace, not a patch).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if _, err := a.requireUser(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if image != "" {
				in.ImageURI = &image
			}
			if err := a.Products.UpdateProduct(id, in); err != nil {
				if errors.Is(err, services.ErrNotFound) {
					return fmt.Errorf("produit %d introuvable", id)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Produit mis à jour.")
			return nil
		},
	}
	productInputFlags(cmd, &in, &image)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProductsRmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Supprimer un produit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if _, err := a.requireUser(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Products.DeleteProduct(id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Produit supprimé.")
			return nil
		},
	}
}

// NewStockCommand adjusts a product's quantity by a signed delta.
func NewStockCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <id> <delta>",
		Short: "Ajuster le stock d'un produit",
		Long: `Applies a signed delta to the current quantity.

A movement entry is always recorded in the activity log, and a low-stock
warning whenever the new total sits at or below the product's threshold.

Example:
  madarun stock 3 -2
  madarun stock 3 +10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			if _, err := a.requireUser(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta invalide %q", args[1])
			}
			total, err := a.Products.AdjustStock(id, delta)
			if err != nil {
				switch {
				case errors.Is(err, services.ErrNotFound):
					return fmt.Errorf("produit %d introuvable", id)
				case errors.Is(err, services.ErrNegativeStock):
					return fmt.Errorf("le stock ne peut pas être négatif")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Nouveau total: %d\n", total)
			return nil
		},
	}
}

func parseID(s string) (uint, error) {
	id64, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id invalide %q", s)
	}
	return uint(id64), nil
}
