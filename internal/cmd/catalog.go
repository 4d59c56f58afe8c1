package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/chatbot/resolver"
)

var catalogDialect string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the intent catalog",
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a catalog and report examples that resolve to the wrong intent",
	Long: `check validates the catalog (the file argument, chatbot.catalog_path, or the
built-in catalog) and replays every example question through the resolver.
An example answered by an earlier intent than the one declaring it means the
later intent is shadowed; check exits non-zero when that happens.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogCheck,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the built-in catalog as YAML",
	Args:  cobra.NoArgs,
	RunE:  runCatalogShow,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogShowCmd.Flags().StringVar(&catalogDialect, "dialect", string(catalog.DialectMySQL), "SQL dialect: mysql, postgres, sqlite or duckdb")
}

func runCatalogCheck(cmd *cobra.Command, args []string) error {
	var (
		c   *catalog.Catalog
		err error
	)
	if len(args) == 1 {
		c, err = catalog.LoadFile(args[0])
	} else {
		cfg, cfgErr := loadConfig()
		if cfgErr != nil {
			return cfgErr
		}
		c, err = loadCatalog(cfg)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d intents loaded\n", c.Len())

	conflicts := resolver.New(c).CheckShadowing()
	if len(conflicts) == 0 {
		fmt.Fprintln(out, "All catalog examples resolve to their own intent.")
		return nil
	}
	for _, conflict := range conflicts {
		fmt.Fprintf(out, "  ! %s\n", conflict)
	}
	return fmt.Errorf("%d catalog example(s) resolve to the wrong intent", len(conflicts))
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	file := catalog.File{Intents: catalog.DefaultDefinitions(catalog.Dialect(catalogDialect))}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(file)
}
